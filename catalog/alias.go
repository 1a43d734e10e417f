package catalog

import (
	"regexp"
	"strings"
)

// AliasConfig controls alias generation. Grounded on original_source's
// AliasGenerationConfig: each strategy can be toggled independently, and
// the total per-model alias count is capped.
type AliasConfig struct {
	MaxAliasesPerModel       int
	GenerateVersionVariants  bool
	GenerateSpacingVariants  bool
	GenerateNoPrefixVariants bool
}

// DefaultAliasConfig returns the default alias generation configuration.
func DefaultAliasConfig() AliasConfig {
	return AliasConfig{
		MaxAliasesPerModel:       8,
		GenerateVersionVariants:  true,
		GenerateSpacingVariants:  true,
		GenerateNoPrefixVariants: true,
	}
}

// aliasStrategy is the sum-type contract for alias generation strategies.
// Re-modeled from the original's abstract-base-class AliasGenerator as an
// interface implemented by three small concrete strategies, applied in a
// fixed order (spec.md §9: "Deep inheritance").
type aliasStrategy interface {
	canGenerate(entry ModelEntry) bool
	generate(entry ModelEntry, cfg AliasConfig) []string
}

// strategies is the fixed, ordered strategy list every alias generation
// pass walks.
var strategies = []aliasStrategy{
	claudeStrategy{},
	versionedStrategy{},
	prefixedStrategy{},
}

// GenerateAliases produces the set of user-facing aliases a catalog entry
// answers to, applying each strategy module in order and deduplicating by
// normalized form (first-seen wins), capped at cfg.MaxAliasesPerModel.
func GenerateAliases(entry ModelEntry, cfg AliasConfig) []string {
	var all []string
	for _, s := range strategies {
		if s.canGenerate(entry) {
			all = append(all, s.generate(entry, cfg)...)
		}
	}
	return dedupeAliases(all, cfg.MaxAliasesPerModel)
}

func dedupeAliases(aliases []string, max int) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range aliases {
		n := Normalize(a)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, a)
		if len(out) >= max {
			break
		}
	}
	return out
}

// --- Claude strategy -------------------------------------------------

// claudeVariants lists the known Claude model variants, checked in this
// order when extracting a variant from a model name.
var claudeVariants = []string{"Haiku", "Sonnet", "Opus"}

type claudeStrategy struct{}

func (claudeStrategy) canGenerate(entry ModelEntry) bool {
	return strings.Contains(strings.ToLower(entry.CanonicalName), "claude")
}

// generate emits "Claude <version> <variant>" and the no-space-after-Claude
// spacing variant ("Claude<version> <variant>"). Emits nothing if a variant
// or version cannot be extracted. A major-version-only alias is
// deliberately never emitted, to avoid ambiguity across models that only
// differ in minor version (see DESIGN.md Open Question decision).
func (claudeStrategy) generate(entry ModelEntry, cfg AliasConfig) []string {
	name := entry.CanonicalName
	variant := extractVariant(name)
	version := extractVersionNumber(name)
	if variant == "" || version == "" {
		return nil
	}

	var aliases []string
	if cfg.GenerateVersionVariants {
		aliases = append(aliases, "Claude "+version+" "+variant)
	}
	if cfg.GenerateSpacingVariants {
		aliases = append(aliases, "Claude"+version+" "+variant)
	}
	return aliases
}

func extractVariant(name string) string {
	lower := strings.ToLower(name)
	for _, v := range claudeVariants {
		if strings.Contains(lower, strings.ToLower(v)) {
			return v
		}
	}
	return ""
}

var (
	twoNumberVersionRe = regexp.MustCompile(`(\d+)[.\s]+(\d+)`)
	singleNumberRe     = regexp.MustCompile(`\b(\d+)\b`)
	adjacentDigitsRe   = regexp.MustCompile(`\b(\d)\s+(\d)\b`)
)

// extractVersionNumber finds a version like "3.5" (from "3.5", "3 5") or
// falls back to a single digit like "3".
func extractVersionNumber(text string) string {
	if m := twoNumberVersionRe.FindStringSubmatch(text); m != nil {
		return m[1] + "." + m[2]
	}
	if m := singleNumberRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// normalizeVersionInName converts the first adjacent single-digit pair
// ("4 5 20251001") into dotted form ("4.5 20251001").
func normalizeVersionInName(name string) string {
	replaced := false
	return adjacentDigitsRe.ReplaceAllStringFunc(name, func(m string) string {
		if replaced {
			return m
		}
		replaced = true
		sub := adjacentDigitsRe.FindStringSubmatch(m)
		return sub[1] + "." + sub[2]
	})
}

// --- Versioned (non-Claude) strategy -----------------------------------

type versionedStrategy struct{}

var hasDigitRe = regexp.MustCompile(`\d`)

func (versionedStrategy) canGenerate(entry ModelEntry) bool {
	name := entry.CanonicalName
	return hasDigitRe.MatchString(name) && !strings.Contains(strings.ToLower(name), "claude")
}

var nameThenNumberRe = regexp.MustCompile(`([A-Za-z]+)\s+(\d+)`)

// generate emits the original name, a variant with the space removed
// between every word and the number that follows it ("Llama 3 8B" ->
// "Llama3 8B"), and a version-normalized variant
// ("Mistral 7 1" -> "Mistral 7.1").
func (versionedStrategy) generate(entry ModelEntry, cfg AliasConfig) []string {
	name := entry.CanonicalName
	var aliases []string

	if cfg.GenerateSpacingVariants {
		noSpace := nameThenNumberRe.ReplaceAllString(name, "$1$2")
		if noSpace != name {
			aliases = append(aliases, noSpace)
		}
		aliases = append(aliases, name)
	}

	if cfg.GenerateVersionVariants {
		normalized := normalizeVersionInName(name)
		if normalized != name {
			aliases = append(aliases, normalized)
		}
	}

	return aliases
}

// --- Prefixed strategy --------------------------------------------------

type prefixedStrategy struct{}

// regionalPrefixes are always retained: stripping them would create
// ambiguous aliases across a multi-region catalog (spec.md §4.1), so this
// strategy only ever removes a providerPrefix, and does so after setting
// a regional prefix, if any, aside first.
var regionalPrefixes = []string{"APAC", "EU", "US"}

var providerPrefixes = []string{
	"Anthropic", "Amazon", "Meta", "Cohere", "AI21", "Mistral", "Stability",
}

func (prefixedStrategy) canGenerate(entry ModelEntry) bool {
	_, rest := splitPrefix(entry.CanonicalName, regionalPrefixes)
	return removePrefix(rest, providerPrefixes) != rest
}

// generate emits a single derived form with the provider prefix removed
// and any regional prefix retained in place, e.g. "APAC Anthropic Claude
// 3 Haiku" -> "APAC Claude 3 Haiku". Returns nil if no provider prefix is
// present.
func (prefixedStrategy) generate(entry ModelEntry, cfg AliasConfig) []string {
	if !cfg.GenerateNoPrefixVariants {
		return nil
	}

	name := entry.CanonicalName
	regional, rest := splitPrefix(name, regionalPrefixes)

	noProvider := removePrefix(rest, providerPrefixes)
	if noProvider == rest {
		return nil
	}

	alias := noProvider
	if regional != "" {
		alias = regional + " " + noProvider
	}
	if alias == name {
		return nil
	}
	return []string{alias}
}

// splitPrefix returns the matched prefix (in its original casing) and the
// remainder of name with that prefix and its following space removed. If
// no prefix matches, prefix is "" and rest is name unchanged.
func splitPrefix(name string, prefixes []string) (prefix, rest string) {
	lower := strings.ToLower(name)
	for _, p := range prefixes {
		pl := strings.ToLower(p)
		if strings.HasPrefix(lower, pl+" ") {
			return name[:len(p)], strings.TrimSpace(name[len(p)+1:])
		}
	}
	return "", name
}

func removePrefix(name string, prefixes []string) string {
	_, rest := splitPrefix(name, prefixes)
	return rest
}
