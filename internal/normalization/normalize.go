package normalization

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	slugInvalid  = regexp.MustCompile(`[^a-z0-9]+`)
	slugTrim     = regexp.MustCompile(`^-+|-+$`)
	pep503Runs   = regexp.MustCompile(`[-_.]+`)
)

// ParseInputString collapses interior whitespace and trims the result.
func ParseInputString(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// ParseEmail lower-cases and trims an email address.
func ParseEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Slugify converts a title into a url-safe slug: lower-case, runs of
// non-alphanumerics become single hyphens, leading/trailing hyphens dropped.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugInvalid.ReplaceAllString(s, "-")
	return slugTrim.ReplaceAllString(s, "")
}

// UpperSnake canonicalizes an enum-ish value: upper-case with interior
// spaces and hyphens collapsed to single underscores.
func UpperSnake(s string) string {
	s = ParseInputString(s)
	s = strings.ReplaceAll(s, "-", " ")
	s = whitespaceRe.ReplaceAllString(s, "_")
	return strings.ToUpper(s)
}

// NormalizePackageName applies PEP 503 normalization: lower-case with runs of
// ".", "-" and "_" collapsed to a single hyphen.
func NormalizePackageName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	return pep503Runs.ReplaceAllString(s, "-")
}
