package catalog

import "testing"

func TestApplyExclusionsNoPatterns(t *testing.T) {
	cat := testCatalog()
	out := ApplyExclusions(cat, nil)
	if len(out.Models) != len(cat.Models) {
		t.Errorf("expected unchanged catalog, got %d models", len(out.Models))
	}
}

func TestApplyExclusionsByName(t *testing.T) {
	cat := testCatalog()
	out := ApplyExclusions(cat, []string{"Llama*"})
	if _, ok := out.Models["Llama 3 8B Instruct"]; ok {
		t.Error("expected Llama model to be excluded")
	}
	if _, ok := out.Models["Claude Haiku 4 5 20251001"]; !ok {
		t.Error("expected non-matching model to remain")
	}
}

func TestApplyExclusionsByModelID(t *testing.T) {
	cat := testCatalog()
	out := ApplyExclusions(cat, []string{"meta.*"})
	if _, ok := out.Models["Llama 3 8B Instruct"]; ok {
		t.Error("expected model excluded by model_id pattern")
	}
}

func TestApplyExclusionsMalformedPattern(t *testing.T) {
	cat := testCatalog()
	out := ApplyExclusions(cat, []string{"["})
	if len(out.Models) != len(cat.Models) {
		t.Error("expected malformed pattern to be skipped, not exclude everything")
	}
}
