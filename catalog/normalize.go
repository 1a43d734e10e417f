package catalog

import "strings"

// Normalize canonicalizes a model-name string for comparison: lower-cases,
// collapses any run of whitespace, hyphen, underscore, or dot into a single
// space, and trims leading/trailing space.
//
// Normalize is pure, total, and idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(name string) string {
	if name == "" {
		return ""
	}

	lower := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lower))
	inRun := false
	for _, r := range lower {
		if isSeparator(r) {
			if !inRun && b.Len() > 0 {
				b.WriteByte(' ')
			}
			inRun = true
			continue
		}
		inRun = false
		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', '-', '_', '.':
		return true
	default:
		return false
	}
}
