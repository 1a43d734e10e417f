package parallel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"llmrouter/catalog"
	"llmrouter/retry"
	"llmrouter/transport"
)

// WorkItem is everything a worker needs to run one request's retry
// call: the ordered candidate models, the region set this request was
// assigned, its target-ordering strategy, and its args.
type WorkItem struct {
	RequestID string
	Entries   []catalog.ModelEntry
	Regions   []string
	Strategy  retry.Strategy
	Args      transport.Args
}

// ExecutorConfig mirrors spec.md §4.7's parallel_config.
type ExecutorConfig struct {
	MaxConcurrentRequests int
	RequestTimeout        time.Duration
	FailureHandling       FailureHandling
	FailureThreshold      float64
}

// Executor is a bounded-concurrency worker pool over a batch of
// WorkItems, each driven through the same retry.Engine.Run path a
// single call would use.
type Executor struct {
	Engine *retry.Engine
	Config ExecutorConfig
}

// NewExecutor constructs an Executor over engine with cfg.
func NewExecutor(engine *retry.Engine, cfg ExecutorConfig) *Executor {
	return &Executor{Engine: engine, Config: cfg}
}

// Run drives every item in items through at most
// Config.MaxConcurrentRequests concurrent workers and aggregates the
// results into a Response, per spec.md §4.7.
func (e *Executor) Run(ctx context.Context, items []WorkItem, assignments []RequestAssignment) Response {
	start := time.Now()

	workerCount := e.Config.MaxConcurrentRequests
	if workerCount <= 0 {
		workerCount = 1
	}

	var stopped atomic.Bool
	var peak atomic.Int64
	var inFlight atomic.Int64

	responses := make(map[string]CallResponse, len(items))
	var mu sync.Mutex

	workCh := make(chan WorkItem)
	var wg sync.WaitGroup

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				if stopped.Load() {
					mu.Lock()
					responses[item.RequestID] = CallResponse{Success: false, Cancelled: true, Error: "cancelled before start"}
					mu.Unlock()
					continue
				}

				n := inFlight.Add(1)
				if n > peak.Load() {
					peak.Store(n)
				}

				resp := e.runOne(runCtx, item)

				inFlight.Add(-1)

				mu.Lock()
				responses[item.RequestID] = resp
				total := len(responses)
				failed := countFailed(responses)
				mu.Unlock()

				if e.shouldStop(total, failed) {
					if stopped.CompareAndSwap(false, true) {
						cancel()
					}
				}
			}
		}()
	}

	go func() {
		defer close(workCh)
		for _, item := range items {
			select {
			case workCh <- item:
			case <-runCtx.Done():
				return
			}
		}
	}()

	wg.Wait()

	for _, item := range items {
		if _, ok := responses[item.RequestID]; !ok {
			responses[item.RequestID] = CallResponse{Success: false, Cancelled: true, Error: "cancelled: not started"}
		}
	}

	success := computeSuccess(e.Config.FailureHandling, responses, e.Config.FailureThreshold)

	return Response{
		Success:          success,
		RequestResponses: responses,
		TotalDuration:    time.Since(start),
		Stats:            buildStats(responses, assignments, int(peak.Load())),
		FailedRequestIDs: failedIDs(responses),
	}
}

func (e *Executor) runOne(ctx context.Context, item WorkItem) CallResponse {
	if e.Config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Config.RequestTimeout)
		defer cancel()
	}

	targets := retry.BuildTargets(item.Entries, item.Regions, item.Strategy)
	result, err := e.Engine.Run(ctx, targets, item.Args)
	if err != nil {
		return CallResponse{Success: false, Error: err.Error()}
	}

	return CallResponse{
		Success:          true,
		Result:           result,
		AccessMethodUsed: result.AccessMethodUsed,
		ProfileUsed:      result.ProfileUsed,
		ProfileID:        result.ProfileID,
	}
}

// shouldStop implements spec.md §4.7's cancellation rules: stop on the
// first failure, stop once the observed failure rate exceeds the
// configured threshold, or never stop.
func (e *Executor) shouldStop(total, failed int) bool {
	switch e.Config.FailureHandling {
	case StopOnFirstFailure:
		return failed > 0
	case StopOnThreshold:
		if total == 0 {
			return false
		}
		return float64(failed)/float64(total) > e.Config.FailureThreshold
	default:
		return false
	}
}

func countFailed(responses map[string]CallResponse) int {
	n := 0
	for _, r := range responses {
		if !r.Success {
			n++
		}
	}
	return n
}

func failedIDs(responses map[string]CallResponse) []string {
	var out []string
	for id, r := range responses {
		if !r.Success {
			out = append(out, id)
		}
	}
	return out
}
