package content

import (
	"fmt"
	"strings"
)

// Mode is the canonical execution-mode representation. The upper-case form is
// what gets persisted and returned by the API; any case is accepted on input
// but conversion happens at the boundary only.
type Mode string

const (
	ModeShared   Mode = "SHARED"
	ModeIsolated Mode = "ISOLATED"
	ModeInherit  Mode = "INHERIT"
)

// SectionType is fixed at section creation. Markdown sections never execute.
type SectionType string

const (
	SectionMarkdown SectionType = "MARKDOWN"
	SectionPython   SectionType = "PYTHON"
)

// ValidationError signals a data-integrity fault: an enum value outside the
// persisted domain. Resolution fails closed instead of guessing a mode.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// ParseMode normalizes a wire value into a canonical Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeShared:
		return ModeShared, nil
	case ModeIsolated:
		return ModeIsolated, nil
	case ModeInherit:
		return ModeInherit, nil
	}
	return "", &ValidationError{Field: "execution_mode", Value: s}
}

// ParseChapterMode is ParseMode restricted to the chapter default domain:
// inheritance terminates at the chapter, so INHERIT is rejected.
func ParseChapterMode(s string) (Mode, error) {
	m, err := ParseMode(s)
	if err != nil {
		return "", &ValidationError{Field: "default_execution_mode", Value: s}
	}
	if m == ModeInherit {
		return "", &ValidationError{Field: "default_execution_mode", Value: s}
	}
	return m, nil
}

// ParseSectionType normalizes a wire value into a canonical SectionType.
func ParseSectionType(s string) (SectionType, error) {
	switch SectionType(strings.ToUpper(strings.TrimSpace(s))) {
	case SectionMarkdown:
		return SectionMarkdown, nil
	case SectionPython:
		return SectionPython, nil
	}
	return "", &ValidationError{Field: "type", Value: s}
}
