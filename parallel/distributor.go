package parallel

import (
	"fmt"
	"math/rand"
	"sort"
)

// Strategy selects how regions are distributed across a batch of
// requests.
type Strategy string

const (
	StrategyRoundRobin  Strategy = "round_robin"
	StrategyRandom      Strategy = "random"
	StrategyLeastLoaded Strategy = "least_loaded"
)

// DistributeRequest is the minimal input the distributor needs per
// request: an id (unique within the batch) and a priority used only as
// a tie-break hint for callers that want one.
type DistributeRequest struct {
	ID       string
	Priority int
}

// Distributor assigns each request in a batch a set of regions per a
// load-balancing strategy, tracking a running per-region load counter
// used by least_loaded and by Optimize.
type Distributor struct {
	load   map[string]int
	cursor int
}

// NewDistributor creates a distributor with a zeroed load counter.
func NewDistributor() *Distributor {
	return &Distributor{load: map[string]int{}}
}

// Distribute assigns targetRegionsPerRequest regions to each request,
// per spec.md §4.6. Preconditions: requests non-empty, regions
// non-empty, 0 < targetRegionsPerRequest <= len(regions); violations
// return a config error.
func (d *Distributor) Distribute(requests []DistributeRequest, regions []string, targetRegionsPerRequest int, strategy Strategy) ([]RequestAssignment, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("parallel: distribute requires at least one request")
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("parallel: distribute requires at least one region")
	}
	if targetRegionsPerRequest <= 0 || targetRegionsPerRequest > len(regions) {
		return nil, fmt.Errorf("parallel: target_regions_per_request must be in (0, %d], got %d", len(regions), targetRegionsPerRequest)
	}

	sortedRegions := append([]string(nil), regions...)
	sort.Strings(sortedRegions)

	for _, r := range sortedRegions {
		if _, ok := d.load[r]; !ok {
			d.load[r] = 0
		}
	}

	assignments := make([]RequestAssignment, 0, len(requests))
	for _, req := range requests {
		var assigned []string
		switch strategy {
		case StrategyRandom:
			assigned = d.pickRandom(sortedRegions, targetRegionsPerRequest)
		case StrategyLeastLoaded:
			assigned = d.pickLeastLoaded(sortedRegions, targetRegionsPerRequest)
		default:
			assigned = d.pickRoundRobin(sortedRegions, targetRegionsPerRequest)
		}

		for _, r := range assigned {
			d.load[r]++
		}

		assignments = append(assignments, RequestAssignment{
			RequestID:       req.ID,
			AssignedRegions: assigned,
			Priority:        req.Priority,
		})
	}

	return assignments, nil
}

// pickRoundRobin takes the next k regions starting at the cursor,
// wrapping around, and advances the cursor by k. Deterministic.
func (d *Distributor) pickRoundRobin(regions []string, k int) []string {
	out := make([]string, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, regions[(d.cursor+i)%len(regions)])
	}
	d.cursor = (d.cursor + k) % len(regions)
	return out
}

// pickRandom samples k distinct regions without replacement.
func (d *Distributor) pickRandom(regions []string, k int) []string {
	shuffled := append([]string(nil), regions...)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	out := append([]string(nil), shuffled[:k]...)
	sort.Strings(out)
	return out
}

// pickLeastLoaded picks the k regions with the smallest current load,
// breaking ties by stable region order (the caller-provided sortedRegions
// order).
func (d *Distributor) pickLeastLoaded(regions []string, k int) []string {
	ranked := append([]string(nil), regions...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return d.load[ranked[i]] < d.load[ranked[j]]
	})
	out := append([]string(nil), ranked[:k]...)
	sort.Strings(out)
	return out
}

// Optimize swaps a high-load region in an assignment for a low-load
// unassigned region when the max-min load gap exceeds varianceThreshold.
// Runs once, after the full batch has been distributed.
func (d *Distributor) Optimize(assignments []RequestAssignment, varianceThreshold int) []RequestAssignment {
	maxLoad, minLoad := d.loadBounds()
	if maxLoad-minLoad <= varianceThreshold {
		return assignments
	}

	out := make([]RequestAssignment, len(assignments))
	copy(out, assignments)

	for i, a := range out {
		regions := append([]string(nil), a.AssignedRegions...)
		for j, region := range regions {
			if d.load[region] != maxLoad {
				continue
			}
			candidate, ok := d.lightestUnassigned(regions)
			if !ok {
				continue
			}
			d.load[region]--
			d.load[candidate]++
			regions[j] = candidate
			break
		}
		sort.Strings(regions)
		out[i].AssignedRegions = regions
	}

	return out
}

func (d *Distributor) loadBounds() (max, min int) {
	first := true
	for _, v := range d.load {
		if first {
			max, min = v, v
			first = false
			continue
		}
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return max, min
}

func (d *Distributor) lightestUnassigned(assigned []string) (string, bool) {
	assignedSet := make(map[string]bool, len(assigned))
	for _, r := range assigned {
		assignedSet[r] = true
	}

	var best string
	bestLoad := -1
	var regions []string
	for r := range d.load {
		regions = append(regions, r)
	}
	sort.Strings(regions)

	for _, r := range regions {
		if assignedSet[r] {
			continue
		}
		if bestLoad == -1 || d.load[r] < bestLoad {
			best, bestLoad = r, d.load[r]
		}
	}
	return best, bestLoad != -1
}
