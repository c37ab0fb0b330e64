package content

import (
	"sort"

	"github.com/pybook/pybook-backend/internal/normalization"
)

// PackageSet is the deduplicated, order-irrelevant set of package names a
// chapter requires. The interpreter host installs the set once per
// interpreter instance: once per chapter in SHARED mode, once per section in
// ISOLATED mode. Names are held in PEP 503 normalized form.
type PackageSet struct {
	names map[string]struct{}
}

func NewPackageSet(names ...string) *PackageSet {
	ps := &PackageSet{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		ps.Add(n)
	}
	return ps
}

// Add inserts a package name; adding an already-present or empty name leaves
// the set unchanged. Returns whether the set grew.
func (ps *PackageSet) Add(name string) bool {
	n := normalization.NormalizePackageName(name)
	if n == "" {
		return false
	}
	if _, ok := ps.names[n]; ok {
		return false
	}
	ps.names[n] = struct{}{}
	return true
}

// Remove drops a package name if present.
func (ps *PackageSet) Remove(name string) bool {
	n := normalization.NormalizePackageName(name)
	if _, ok := ps.names[n]; !ok {
		return false
	}
	delete(ps.names, n)
	return true
}

func (ps *PackageSet) Contains(name string) bool {
	_, ok := ps.names[normalization.NormalizePackageName(name)]
	return ok
}

func (ps *PackageSet) Len() int { return len(ps.names) }

// Sorted returns the names sorted for stable persistence and display.
func (ps *PackageSet) Sorted() []string {
	out := make([]string, 0, len(ps.names))
	for n := range ps.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
