// Package hierarchy decomposes dotted names into their ancestor chains.
//
// Names are opaque byte sequences split on the literal '.' character; labels
// are not validated here (empty labels and unicode are fine). The decomposer
// is pure, which keeps reward distribution exhaustively testable.
package hierarchy

import "strings"

// Ancestors returns the proper ancestor suffixes of name, ordered from the
// root (single-label suffix) to the immediate parent. The name itself is
// never included, so a name with k dots yields exactly k ancestors and a
// bare top-level label yields none.
//
//	Ancestors("new.sub.example.com") == ["com", "example.com", "sub.example.com"]
func Ancestors(name string) []string {
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return nil
	}
	ancestors := make([]string, 0, len(labels)-1)
	for i := len(labels) - 1; i > 0; i-- {
		ancestors = append(ancestors, strings.Join(labels[i:], "."))
	}
	return ancestors
}

// Depth returns the number of dots in name, which equals the length of its
// ancestor chain.
func Depth(name string) int {
	return strings.Count(name, ".")
}

// Parent returns the immediate parent suffix of name and true, or "" and
// false for a top-level name.
func Parent(name string) (string, bool) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[i+1:], true
	}
	return "", false
}
