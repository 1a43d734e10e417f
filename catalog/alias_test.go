package catalog

import "testing"

func entry(name string) ModelEntry {
	return ModelEntry{CanonicalName: name, ModelID: name}
}

func TestClaudeAliasGeneration(t *testing.T) {
	aliases := GenerateAliases(entry("Claude Haiku 4 5 20251001"), DefaultAliasConfig())

	want := map[string]bool{
		"claude 4 5 haiku": false,
		"claude4 5 haiku":  false,
	}
	for _, a := range aliases {
		if _, ok := want[Normalize(a)]; ok {
			want[Normalize(a)] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Errorf("expected alias normalizing to %q, got %v", k, aliases)
		}
	}
}

func TestClaudeAliasGenerationNoVariant(t *testing.T) {
	aliases := GenerateAliases(entry("Claude Instant"), DefaultAliasConfig())
	if len(aliases) != 0 {
		t.Errorf("expected no aliases without extractable variant+version, got %v", aliases)
	}
}

func TestVersionedStrategy(t *testing.T) {
	aliases := GenerateAliases(entry("Llama 3 8B Instruct"), DefaultAliasConfig())
	foundNoSpace := false
	for _, a := range aliases {
		if a == "Llama3 8B Instruct" {
			foundNoSpace = true
		}
	}
	if !foundNoSpace {
		t.Errorf("expected no-space variant in %v", aliases)
	}
}

func TestVersionedStrategyNotAppliedToClaude(t *testing.T) {
	cfg := DefaultAliasConfig()
	cfg.GenerateNoPrefixVariants = false
	aliases := GenerateAliases(entry("Claude Haiku 3"), cfg)
	for _, a := range aliases {
		if a == "Claude Haiku3" {
			t.Errorf("versioned strategy should not apply to Claude models, got alias %q", a)
		}
	}
}

func TestPrefixedStrategy(t *testing.T) {
	aliases := GenerateAliases(entry("APAC Anthropic Claude 3 Haiku"), DefaultAliasConfig())
	foundProviderStripped := false
	foundRegionalStripped := false
	for _, a := range aliases {
		if Normalize(a) == Normalize("APAC Claude 3 Haiku") {
			foundProviderStripped = true
		}
		if Normalize(a) == Normalize("Anthropic Claude 3 Haiku") {
			foundRegionalStripped = true
		}
	}
	if !foundProviderStripped {
		t.Errorf("expected provider-prefix-stripped, regional-prefix-retained alias in %v", aliases)
	}
	if foundRegionalStripped {
		t.Errorf("regional prefix must never be stripped (ambiguous across a multi-region catalog), got %v", aliases)
	}
}

func TestAliasLimitEnforced(t *testing.T) {
	cfg := DefaultAliasConfig()
	cfg.MaxAliasesPerModel = 1
	aliases := GenerateAliases(entry("APAC Anthropic Claude 4 5 Haiku"), cfg)
	if len(aliases) > 1 {
		t.Errorf("expected at most 1 alias, got %v", aliases)
	}
}

func TestAliasDeduplication(t *testing.T) {
	aliases := GenerateAliases(entry("Claude Haiku 3"), DefaultAliasConfig())
	seen := map[string]bool{}
	for _, a := range aliases {
		n := Normalize(a)
		if seen[n] {
			t.Errorf("duplicate alias (by normalized form) %q in %v", a, aliases)
		}
		seen[n] = true
	}
}
