package catalog

import "testing"

func testCatalog() *Catalog {
	access := func(region string) AccessInfo {
		return AccessInfo{Region: region, HasDirect: true, DirectModelID: "vendor-id-" + region}
	}
	return &Catalog{
		Models: map[string]ModelEntry{
			"Claude Haiku 4 5 20251001": {
				CanonicalName: "Claude Haiku 4 5 20251001",
				ModelID:       "anthropic.claude-haiku-4-5",
				Regions: map[string]AccessInfo{
					"us-east-1": access("us-east-1"),
				},
			},
			"Claude Sonnet 4 20250514": {
				CanonicalName: "Claude Sonnet 4 20250514",
				ModelID:       "anthropic.claude-sonnet-4",
				Regions: map[string]AccessInfo{
					"us-east-1": access("us-east-1"),
				},
			},
			"Llama 3 8B Instruct": {
				CanonicalName: "Llama 3 8B Instruct",
				ModelID:       "meta.llama3-8b",
				Regions: map[string]AccessInfo{
					"us-west-2": access("us-west-2"),
				},
			},
		},
	}
}

func TestResolveExact(t *testing.T) {
	r := NewResolver(testCatalog())
	res, ok := r.Resolve("Claude Haiku 4 5 20251001", false)
	if !ok {
		t.Fatal("expected resolution")
	}
	if res.MatchType != MatchExact || res.Confidence != 1.0 {
		t.Errorf("got %+v, want exact/1.0", res)
	}
}

func TestResolveAlias(t *testing.T) {
	r := NewResolver(testCatalog())
	res, ok := r.Resolve("Claude 4.5 Haiku", false)
	if !ok {
		t.Fatal("expected resolution")
	}
	if res.CanonicalName != "Claude Haiku 4 5 20251001" {
		t.Errorf("canonical = %q", res.CanonicalName)
	}
	if res.MatchType != MatchAlias {
		t.Errorf("match type = %q, want alias", res.MatchType)
	}
}

func TestResolveCaseInsensitive(t *testing.T) {
	r := NewResolver(testCatalog())
	upper, ok1 := r.Resolve("CLAUDE HAIKU 4 5 20251001", false)
	lower, ok2 := r.Resolve("claude haiku 4 5 20251001", false)
	exact, ok3 := r.Resolve("Claude Haiku 4 5 20251001", false)
	if !ok1 || !ok2 || !ok3 {
		t.Fatal("expected all three to resolve")
	}
	if upper.CanonicalName != lower.CanonicalName || lower.CanonicalName != exact.CanonicalName {
		t.Errorf("case variants resolved to different canonicals: %q %q %q", upper.CanonicalName, lower.CanonicalName, exact.CanonicalName)
	}
}

func TestResolveFuzzyRequiresNonStrict(t *testing.T) {
	r := NewResolver(testCatalog())
	if _, ok := r.Resolve("Claud Haik", true); ok {
		t.Error("strict mode should not fuzzy match")
	}
	if _, ok := r.Resolve("Claud Haik", false); !ok {
		t.Error("non-strict mode should fuzzy match a close misspelling")
	}
}

func TestResolveEmptyInput(t *testing.T) {
	r := NewResolver(testCatalog())
	if _, ok := r.Resolve("", false); ok {
		t.Error("empty input should not resolve")
	}
	if _, ok := r.Resolve("   ", false); ok {
		t.Error("whitespace input should not resolve")
	}
}

func TestSuggestionsEmptyInput(t *testing.T) {
	r := NewResolver(testCatalog())
	if got := r.Suggestions("", 3); got != nil {
		t.Errorf("expected nil suggestions for empty input, got %v", got)
	}
}

func TestSuggestionsRelevance(t *testing.T) {
	r := NewResolver(testCatalog())
	suggestions := r.Suggestions("Claude Sonet", 5)
	if len(suggestions) == 0 {
		t.Fatal("expected at least one suggestion")
	}
	for _, s := range suggestions {
		if !substringMatch("Claude Sonet", s) && ratio(Normalize("Claude Sonet"), Normalize(s)) < fuzzyThreshold("Claude Sonet") {
			t.Errorf("suggestion %q fails relevance contract", s)
		}
	}
}

func TestAmbiguousAliasDropped(t *testing.T) {
	cat := &Catalog{
		Models: map[string]ModelEntry{
			"Claude Haiku 3": {
				CanonicalName: "Claude Haiku 3",
				ModelID:       "vendor.claude-haiku-3-a",
			},
			"Claude Haiku 3 Alt": {
				// Deliberately engineered to produce the exact same alias
				// ("Claude 3 Haiku") as the entry above, but with a
				// different model_id — the alias must be dropped from both.
				CanonicalName: "Claude Haiku 3",
				ModelID:       "vendor.claude-haiku-3-b",
			},
		},
	}
	r := NewResolver(cat)
	r.ensureIndexes()
	if _, ok := r.aliasIndex[Normalize("Claude 3 Haiku")]; ok {
		t.Error("ambiguous alias should have been dropped from the alias index")
	}
}

func TestSharedModelIDAliasNotAmbiguous(t *testing.T) {
	cat := &Catalog{
		Models: map[string]ModelEntry{
			"Claude Haiku 4 5 us-east-1": {
				CanonicalName: "Claude Haiku 4 5 us-east-1",
				ModelID:       "anthropic.claude-haiku-4-5",
			},
			"Claude Haiku 4 5 eu-west-1": {
				CanonicalName: "Claude Haiku 4 5 eu-west-1",
				ModelID:       "anthropic.claude-haiku-4-5",
			},
		},
	}
	r := NewResolver(cat)
	r.ensureIndexes()
	if _, ok := r.aliasIndex[Normalize("Claude 4.5 Haiku")]; !ok {
		t.Error("alias shared by entries with the same model_id should survive")
	}
}
