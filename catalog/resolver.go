package catalog

import (
	"strings"
	"sync"
)

// MatchType identifies how a name was resolved to a canonical entry.
type MatchType string

const (
	MatchExact      MatchType = "exact"
	MatchAlias      MatchType = "alias"
	MatchNormalized MatchType = "normalized"
	MatchFuzzy      MatchType = "fuzzy"
)

// NameResolution is the result of successfully resolving a user-supplied
// name to a catalog entry.
type NameResolution struct {
	CanonicalName string
	MatchType     MatchType
	Confidence    float64
}

// confidenceFor returns the fixed confidence value for a match type. Fuzzy
// confidence is computed by the caller (it varies by similarity score).
func confidenceFor(mt MatchType) float64 {
	switch mt {
	case MatchExact, MatchAlias:
		return 1.0
	case MatchNormalized:
		return 0.95
	default:
		return 0
	}
}

// Resolver maps user-supplied friendly/legacy/prefixed model names to
// canonical catalog entries, with fuzzy-match suggestions. Indexes are
// built lazily on first resolve and cached for the Resolver's lifetime
// (the Catalog it wraps is immutable after load).
type Resolver struct {
	catalog *Catalog
	aliasCfg AliasConfig

	once sync.Once

	// exactIndex maps canonical name -> canonical name (identity, kept for
	// symmetry with the other indexes and O(1) existence checks).
	exactIndex map[string]string
	// aliasIndex maps alias -> canonical name. Ambiguous aliases (claimed
	// by entries with different ModelID) are omitted entirely.
	aliasIndex map[string]string
	// normalizedIndex maps normalized form (of canonical names and
	// surviving aliases) -> canonical name.
	normalizedIndex map[string]string
}

// NewResolver creates a Resolver over the given catalog using the default
// alias configuration.
func NewResolver(cat *Catalog) *Resolver {
	return NewResolverWithAliasConfig(cat, DefaultAliasConfig())
}

// NewResolverWithAliasConfig creates a Resolver using an explicit alias
// generation configuration.
func NewResolverWithAliasConfig(cat *Catalog, cfg AliasConfig) *Resolver {
	return &Resolver{catalog: cat, aliasCfg: cfg}
}

func (r *Resolver) ensureIndexes() {
	r.once.Do(func() {
		r.exactIndex = map[string]string{}
		r.normalizedIndex = map[string]string{}

		// owners tracks which model_id(s) have claimed each alias, so that
		// an alias generated identically by two entries with different
		// model_id can be dropped from both (spec.md §4.1 invariant).
		// Entries sharing the same model_id (regional variants) may
		// legitimately share aliases.
		type claim struct {
			canonical string
			modelID   string
		}
		claims := map[string][]claim{}

		for name, me := range r.catalog.Models {
			r.exactIndex[name] = name
			r.normalizedIndex[Normalize(name)] = name

			for _, alias := range GenerateAliases(me, r.aliasCfg) {
				key := Normalize(alias)
				claims[key] = append(claims[key], claim{canonical: name, modelID: me.ModelID})
			}
		}

		r.aliasIndex = map[string]string{}
		for normAlias, owners := range claims {
			ambiguous := false
			modelID := owners[0].modelID
			for _, o := range owners[1:] {
				if o.modelID != modelID {
					ambiguous = true
					break
				}
			}
			if ambiguous {
				continue
			}
			r.aliasIndex[normAlias] = owners[0].canonical
			if _, exists := r.normalizedIndex[normAlias]; !exists {
				r.normalizedIndex[normAlias] = owners[0].canonical
			}
		}
	})
}

// Resolve attempts, in order: exact, alias, normalized, and (when
// strict=false) fuzzy matching. Returns the first hit with its match type,
// or ok=false if nothing matched.
func (r *Resolver) Resolve(name string, strict bool) (NameResolution, bool) {
	r.ensureIndexes()

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return NameResolution{}, false
	}

	if canonical, ok := r.exactIndex[name]; ok {
		return NameResolution{CanonicalName: canonical, MatchType: MatchExact, Confidence: confidenceFor(MatchExact)}, true
	}

	normName := Normalize(name)
	if canonical, ok := r.aliasIndex[normName]; ok {
		return NameResolution{CanonicalName: canonical, MatchType: MatchAlias, Confidence: confidenceFor(MatchAlias)}, true
	}

	if canonical, ok := r.normalizedIndex[normName]; ok {
		return NameResolution{CanonicalName: canonical, MatchType: MatchNormalized, Confidence: confidenceFor(MatchNormalized)}, true
	}

	if strict {
		return NameResolution{}, false
	}

	return r.resolveFuzzy(name)
}

func (r *Resolver) resolveFuzzy(name string) (NameResolution, bool) {
	threshold := fuzzyThreshold(Normalize(name))

	var best string
	var bestScore float64
	found := false

	for canonical := range r.catalog.Models {
		if substringMatch(name, canonical) {
			score := ratio(Normalize(name), Normalize(canonical))
			if !found || score > bestScore {
				best, bestScore, found = canonical, score, true
			}
			continue
		}
		score := ratio(Normalize(name), Normalize(canonical))
		if score >= threshold && (!found || score > bestScore) {
			best, bestScore, found = canonical, score, true
		}
	}

	if !found {
		return NameResolution{}, false
	}
	return NameResolution{CanonicalName: best, MatchType: MatchFuzzy, Confidence: clampFuzzyConfidence(bestScore)}, true
}

func clampFuzzyConfidence(score float64) float64 {
	if score > 0.9 {
		return 0.9
	}
	return score
}

// Suggestions returns up to k canonical names ranked by similarity to
// name. Every suggestion satisfies either substring-match or a similarity
// ratio >= the length-dependent threshold. Empty/whitespace input returns
// an empty slice.
func (r *Resolver) Suggestions(name string, k int) []string {
	r.ensureIndexes()

	if strings.TrimSpace(name) == "" || k <= 0 {
		return nil
	}

	threshold := fuzzyThreshold(Normalize(name))

	type candidate struct {
		name  string
		score float64
	}
	var candidates []candidate

	for canonical := range r.catalog.Models {
		sub := substringMatch(name, canonical)
		score := ratio(Normalize(name), Normalize(canonical))
		if sub || score >= threshold {
			candidates = append(candidates, candidate{canonical, score})
		}
	}

	// Sort candidates by descending score, stable on name for determinism.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && (candidates[j-1].score < candidates[j].score ||
			(candidates[j-1].score == candidates[j].score && candidates[j-1].name > candidates[j].name)); j-- {
			candidates[j-1], candidates[j] = candidates[j], candidates[j-1]
		}
	}

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.name
	}
	return out
}
