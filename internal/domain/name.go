package domain

import (
	"fmt"
	"strings"
)

// RetiredMarker prefixes a lineage name in the notes file when the lineage
// has been folded back into its parent.
const RetiredMarker = "*"

// Ancestors returns every dot-delimited prefix of name, root first,
// ending with name itself.
func Ancestors(name string) []string {
	parts := strings.Split(name, ".")
	out := make([]string, len(parts))
	for i := range parts {
		out[i] = strings.Join(parts[:i+1], ".")
	}
	return out
}

// Parent returns name without its last component, or "" for a root lineage.
func Parent(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[:i]
}

// Depth is the number of components in name.
func Depth(name string) int {
	if name == "" {
		return 0
	}
	return strings.Count(name, ".") + 1
}

// StripRetired removes any leading retirement markers and reports whether
// one was present.
func StripRetired(name string) (string, bool) {
	stripped := strings.TrimLeft(name, RetiredMarker)
	return stripped, stripped != name
}

// BracketName extracts the lineage from a summary name cell of the form
// "[B.1.1.7]..." by dropping leading '[' and everything from ']' on.
func BracketName(cell string) string {
	if i := strings.IndexByte(cell, ']'); i >= 0 {
		cell = cell[:i]
	}
	return strings.TrimLeft(cell, "[")
}

// ValidateName checks that name is a non-empty dotted identifier whose
// components are made of letters, digits, '_' or '-'.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty lineage name")
	}
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return fmt.Errorf("lineage %q has an empty component", name)
		}
		for _, r := range part {
			if !isNameRune(r) {
				return fmt.Errorf("lineage %q contains invalid character %q", name, r)
			}
		}
	}
	return nil
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	}
	return false
}
