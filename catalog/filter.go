package catalog

import "github.com/bmatcuk/doublestar/v4"

// ApplyExclusions removes model entries whose canonical name or model_id
// matches any of the given doublestar glob patterns (e.g.
// "*.claude-instant-*"), returning a new Catalog. Grounded on
// engine/policy/evaluator.go's rule-target glob matching, rehomed here
// from tool-permission targets to config.ExcludeModelPatterns. A
// malformed pattern is skipped rather than treated as a fatal error —
// config-driven glob filtering should never crash catalog load.
func ApplyExclusions(cat *Catalog, patterns []string) *Catalog {
	if len(patterns) == 0 {
		return cat
	}

	out := &Catalog{
		Models:   make(map[string]ModelEntry, len(cat.Models)),
		Metadata: cat.Metadata,
	}

	for name, entry := range cat.Models {
		if matchesAny(patterns, name) || matchesAny(patterns, entry.ModelID) {
			continue
		}
		out.Models[name] = entry
	}
	return out
}

func matchesAny(patterns []string, s string) bool {
	for _, p := range patterns {
		matched, err := doublestar.Match(p, s)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
