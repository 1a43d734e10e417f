// Package parallel fans a batch of calls out across regions under a
// pluggable load-balancing policy, bounds concurrency, and aggregates
// per-call results. Adapted from engine/policy/evaluator.go's
// candidate-ranking shape for the distributor and from
// app/bootstrap.go's phased-construction discipline, generalized here
// to a bounded worker pool, for the executor.
package parallel

// RequestAssignment is the region fan-out computed for one request:
// {request_id, assigned_regions, priority}. request_id must be unique
// across a batch.
type RequestAssignment struct {
	RequestID       string
	AssignedRegions []string
	Priority        int
}
