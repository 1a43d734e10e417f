package parallel

import "testing"

func reqs(ids ...string) []DistributeRequest {
	out := make([]DistributeRequest, len(ids))
	for i, id := range ids {
		out[i] = DistributeRequest{ID: id}
	}
	return out
}

func TestDistributeRoundRobinIsDeterministic(t *testing.T) {
	d := NewDistributor()
	regions := []string{"us-east-1", "us-west-2", "eu-central-1"}

	assignments, err := d.Distribute(reqs("r1", "r2", "r3"), regions, 1, StrategyRoundRobin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The cursor walks the regions in sorted order.
	want := []string{"eu-central-1", "us-east-1", "us-west-2"}
	for i, a := range assignments {
		if len(a.AssignedRegions) != 1 || a.AssignedRegions[0] != want[i] {
			t.Errorf("assignment %d = %v, want [%s]", i, a.AssignedRegions, want[i])
		}
	}
}

func TestDistributeRoundRobinWraps(t *testing.T) {
	d := NewDistributor()
	regions := []string{"a", "b"}
	assignments, err := d.Distribute(reqs("r1", "r2", "r3"), regions, 1, StrategyRoundRobin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assignments[2].AssignedRegions[0] != "a" {
		t.Errorf("expected cursor to wrap back to 'a', got %v", assignments[2].AssignedRegions)
	}
}

func TestDistributeValidatesPreconditions(t *testing.T) {
	d := NewDistributor()
	if _, err := d.Distribute(nil, []string{"a"}, 1, StrategyRoundRobin); err == nil {
		t.Error("expected error for empty requests")
	}
	if _, err := d.Distribute(reqs("r1"), nil, 1, StrategyRoundRobin); err == nil {
		t.Error("expected error for empty regions")
	}
	if _, err := d.Distribute(reqs("r1"), []string{"a"}, 0, StrategyRoundRobin); err == nil {
		t.Error("expected error for target_regions_per_request=0")
	}
	if _, err := d.Distribute(reqs("r1"), []string{"a"}, 2, StrategyRoundRobin); err == nil {
		t.Error("expected error for target_regions_per_request > len(regions)")
	}
}

func TestDistributeLeastLoadedPrefersLightestRegions(t *testing.T) {
	d := NewDistributor()
	regions := []string{"a", "b", "c"}

	// Load up "a" and "b" heavily first via round robin.
	if _, err := d.Distribute(reqs("seed1", "seed2"), []string{"a", "b"}, 1, StrategyRoundRobin); err != nil {
		t.Fatalf("seed distribute failed: %v", err)
	}

	assignments, err := d.Distribute(reqs("r1"), regions, 1, StrategyLeastLoaded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assignments[0].AssignedRegions[0] != "c" {
		t.Errorf("expected least-loaded region 'c', got %v", assignments[0].AssignedRegions)
	}
}

func TestDistributeRandomPicksDistinctRegions(t *testing.T) {
	d := NewDistributor()
	assignments, err := d.Distribute(reqs("r1"), []string{"a", "b", "c"}, 2, StrategyRandom)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assignments[0].AssignedRegions) != 2 {
		t.Fatalf("expected 2 regions, got %v", assignments[0].AssignedRegions)
	}
	if assignments[0].AssignedRegions[0] == assignments[0].AssignedRegions[1] {
		t.Errorf("expected distinct regions, got %v", assignments[0].AssignedRegions)
	}
}

func TestOptimizeNoopWithinThreshold(t *testing.T) {
	d := NewDistributor()
	assignments, _ := d.Distribute(reqs("r1"), []string{"a", "b"}, 1, StrategyRoundRobin)
	optimized := d.Optimize(assignments, 100)
	if optimized[0].AssignedRegions[0] != assignments[0].AssignedRegions[0] {
		t.Errorf("expected no-op optimize within threshold")
	}
}
