package retry

import (
	"testing"

	"llmrouter/catalog"
)

func testEntries() []catalog.ModelEntry {
	return []catalog.ModelEntry{
		{
			CanonicalName: "claude-sonnet-4.5",
			ModelID:       "anthropic.claude-sonnet-4-5",
			Regions: map[string]catalog.AccessInfo{
				"us-east-1": {Region: "us-east-1", HasDirect: true, DirectModelID: "anthropic.claude-sonnet-4-5"},
				"us-west-2": {Region: "us-west-2", HasDirect: true, DirectModelID: "anthropic.claude-sonnet-4-5"},
			},
		},
		{
			CanonicalName: "claude-haiku-4.5",
			ModelID:       "anthropic.claude-haiku-4-5",
			Regions: map[string]catalog.AccessInfo{
				"us-east-1": {Region: "us-east-1", HasDirect: true, DirectModelID: "anthropic.claude-haiku-4-5"},
			},
		},
	}
}

func TestBuildTargetsModelFirst(t *testing.T) {
	entries := testEntries()
	targets := BuildTargets(entries, []string{"us-east-1", "us-west-2"}, StrategyModelFirst)

	if len(targets) != 3 {
		t.Fatalf("len = %d, want 3", len(targets))
	}
	if targets[0].ModelName != "claude-sonnet-4.5" || targets[1].ModelName != "claude-sonnet-4.5" {
		t.Errorf("expected both sonnet regions before haiku, got %+v", targets)
	}
	if targets[2].ModelName != "claude-haiku-4.5" {
		t.Errorf("expected haiku last, got %+v", targets[2])
	}
}

func TestBuildTargetsRegionFirst(t *testing.T) {
	entries := testEntries()
	targets := BuildTargets(entries, []string{"us-east-1", "us-west-2"}, StrategyRegionFirst)

	if len(targets) != 3 {
		t.Fatalf("len = %d, want 3", len(targets))
	}
	for _, target := range targets[:2] {
		if target.Region != "us-east-1" {
			t.Errorf("expected us-east-1 targets first, got %+v", target)
		}
	}
	if targets[2].Region != "us-west-2" {
		t.Errorf("expected us-west-2 target last, got %+v", targets[2])
	}
}

func TestBuildTargetsSkipsMissingRegions(t *testing.T) {
	entries := testEntries()
	targets := BuildTargets(entries, []string{"eu-central-1"}, StrategyModelFirst)
	if len(targets) != 0 {
		t.Errorf("expected no targets for an unavailable region, got %+v", targets)
	}
}
