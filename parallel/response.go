package parallel

import (
	"sort"
	"time"

	"llmrouter/access"
	"llmrouter/retry"
)

// CallResponse is the user-facing result of one request in a batch:
// spec.md §3.1's BedrockResponse.
type CallResponse struct {
	Success          bool
	Result           retry.Result
	Error            string
	AccessMethodUsed access.Method
	ProfileUsed      bool
	ProfileID        string
	Cancelled        bool
}

// FailureHandling controls how the executor reacts to a failing
// request within a batch.
type FailureHandling string

const (
	StopOnFirstFailure FailureHandling = "stop_on_first_failure"
	StopOnThreshold    FailureHandling = "stop_on_threshold"
	ContinueOnFailure  FailureHandling = "continue_on_failure"
)

// Stats holds the aggregate counters spec.md §4.7 asks the executor to
// report after a batch completes.
type Stats struct {
	PerMethodCounts         map[access.Method]int
	RegionDistribution      map[string]int
	ConcurrentPeak          int
	ProfileUsagePercentage  float64
	ProfileIDToRequestIDs   map[string][]string
}

// Response is the aggregate result of one parallel batch: spec.md
// §3.1's ParallelResponse.
type Response struct {
	Success           bool
	RequestResponses  map[string]CallResponse
	TotalDuration      time.Duration
	Stats             Stats
	FailedRequestIDs  []string
}

// GetRequestsByAccessMethod is a derived view over RequestResponses:
// the request ids whose call used the given access method.
func (r *Response) GetRequestsByAccessMethod(method access.Method) []string {
	var out []string
	for id, resp := range r.RequestResponses {
		if resp.AccessMethodUsed == method {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// ProfileUsageDetail describes one request that used a profile access
// method.
type ProfileUsageDetail struct {
	RequestID string
	ProfileID string
	Method    access.Method
}

// GetProfileUsageDetails is a derived view listing every request that
// used a non-direct access method, along with the profile id it used.
func (r *Response) GetProfileUsageDetails() []ProfileUsageDetail {
	var out []ProfileUsageDetail
	for id, resp := range r.RequestResponses {
		if !resp.ProfileUsed {
			continue
		}
		out = append(out, ProfileUsageDetail{RequestID: id, ProfileID: resp.ProfileID, Method: resp.AccessMethodUsed})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestID < out[j].RequestID })
	return out
}

// buildStats recomputes Stats from the final request_responses map and
// the distributor's per-request region assignments, rather than
// threading running counters through the worker pool.
func buildStats(responses map[string]CallResponse, assignments []RequestAssignment, peak int) Stats {
	stats := Stats{
		PerMethodCounts:       map[access.Method]int{},
		RegionDistribution:    map[string]int{},
		ConcurrentPeak:        peak,
		ProfileIDToRequestIDs: map[string][]string{},
	}

	var profileUsed, total int
	for id, resp := range responses {
		total++
		if resp.AccessMethodUsed != "" {
			stats.PerMethodCounts[resp.AccessMethodUsed]++
		}
		if resp.ProfileUsed {
			profileUsed++
			stats.ProfileIDToRequestIDs[resp.ProfileID] = append(stats.ProfileIDToRequestIDs[resp.ProfileID], id)
		}
	}

	for _, ids := range stats.ProfileIDToRequestIDs {
		sort.Strings(ids)
	}

	for _, a := range assignments {
		for _, region := range a.AssignedRegions {
			stats.RegionDistribution[region]++
		}
	}

	if total > 0 {
		stats.ProfileUsagePercentage = float64(profileUsed) / float64(total) * 100
	}

	return stats
}

// computeSuccess derives Response.Success from the failure-handling
// strategy per spec.md §4.7.
func computeSuccess(strategy FailureHandling, responses map[string]CallResponse, threshold float64) bool {
	if len(responses) == 0 {
		return false
	}

	var succeeded, failed int
	for _, r := range responses {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}

	switch strategy {
	case StopOnFirstFailure:
		return failed == 0
	case StopOnThreshold:
		return float64(failed)/float64(len(responses)) <= threshold
	default: // ContinueOnFailure
		return succeeded > 0
	}
}
