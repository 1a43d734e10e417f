// Package manager is the public surface of the routing core: model name
// resolution, a single reliable Converse call, a parallel batch call,
// catalog refresh, and introspection. Adapted from app/app.go and
// app/bootstrap.go's phased-construction pattern, repointed from
// assembling a TUI session to assembling a Bedrock routing session.
package manager

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"llmrouter/access"
	"llmrouter/catalog"
	"llmrouter/config"
	"llmrouter/parallel"
	"llmrouter/retry"
	"llmrouter/transport"
)

// ConverseRequest is a single-call request. Regions, when non-empty,
// overrides Config.Regions for this call only.
type ConverseRequest struct {
	ModelName string
	Args      transport.Args
	Regions   []string
}

// BatchRequest is one request within a ConverseParallel batch. RequestID
// must be unique within the batch.
type BatchRequest struct {
	RequestID string
	ModelName string
	Args      transport.Args
	Priority  int
}

// AccessMethodStatistics is the cumulative, process-lifetime view
// returned by GetAccessMethodStatistics — distinct from a single
// ParallelResponse's Stats, which covers only one batch.
type AccessMethodStatistics struct {
	PerMethodCounts        map[access.Method]int
	TotalCalls             int
	ProfileUsagePercentage float64
}

// Manager owns the Catalog, the resolver built over it, the retry
// engine, and the parallel executor — the four subsystems wired
// together into one client. The Catalog and resolver are swapped
// atomically (behind mu) on RefreshCatalog; every other field is set
// once at construction.
type Manager struct {
	mu       sync.RWMutex
	cfg      config.Config
	cat      *catalog.Catalog
	resolver *catalog.Resolver

	engine      *retry.Engine
	distributor *parallel.Distributor
	executor    *parallel.Executor

	// fetchCatalog re-derives a fresh Catalog on refresh, following the
	// live -> file-cache -> memory-cache -> bundled priority chain (the
	// same chain Bootstrap's initial load goes through — see
	// assembleCatalog in bootstrap.go). Injected by Bootstrap so
	// manager_test.go can substitute a fake.
	fetchCatalog func(ctx context.Context) (*catalog.Catalog, error)

	// memCache is the process-local fallback assembleCatalog consults
	// between a file-cache miss and the bundled artifact. Owned by
	// Manager (rather than package-level) so each Manager instance in a
	// test or multi-instance process keeps its own view.
	memCache *catalog.MemoryCache

	// authCheck, when set, is consulted by ValidateConfiguration to
	// report credential/session health without making an inference call.
	authCheck func(ctx context.Context) error

	stats statsAccumulator
}

// statsAccumulator tracks GetAccessMethodStatistics across the
// Manager's lifetime. Its counters are updated on every recorded call
// rather than recomputed like parallel.Response's derived views, and are
// cumulative rather than per-batch, since spec.md's
// get_access_method_statistics is a manager-level operation, not a
// batch-level one (see DESIGN.md Open Question decision).
type statsAccumulator struct {
	mu               sync.Mutex
	perMethod        map[access.Method]int
	totalCalls       int
	profileUsedCalls int
}

func (s *statsAccumulator) record(method access.Method, profileUsed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.perMethod == nil {
		s.perMethod = map[access.Method]int{}
	}
	if method != "" {
		s.perMethod[method]++
	}
	s.totalCalls++
	if profileUsed {
		s.profileUsedCalls++
	}
}

func (s *statsAccumulator) snapshot() AccessMethodStatistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := AccessMethodStatistics{PerMethodCounts: map[access.Method]int{}, TotalCalls: s.totalCalls}
	for k, v := range s.perMethod {
		out.PerMethodCounts[k] = v
	}
	if s.totalCalls > 0 {
		out.ProfileUsagePercentage = float64(s.profileUsedCalls) / float64(s.totalCalls) * 100
	}
	return out
}

// ResolveModel maps a user-supplied name to a canonical catalog entry.
// Non-strict: falls back to fuzzy matching when no exact/alias/
// normalized hit exists.
func (m *Manager) ResolveModel(name string) (catalog.NameResolution, error) {
	m.mu.RLock()
	resolver := m.resolver
	m.mu.RUnlock()

	res, ok := resolver.Resolve(name, false)
	if !ok {
		return catalog.NameResolution{}, &NameNotFoundError{Name: name, Suggestions: resolver.Suggestions(name, 3)}
	}
	return res, nil
}

// resolveEntry resolves name and looks up its catalog.ModelEntry under
// the same read lock, so a concurrent RefreshCatalog cannot swap the
// catalog out from under a single lookup.
func (m *Manager) resolveEntry(name string) (catalog.ModelEntry, catalog.NameResolution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res, ok := m.resolver.Resolve(name, false)
	if !ok {
		return catalog.ModelEntry{}, catalog.NameResolution{}, &NameNotFoundError{Name: name, Suggestions: m.resolver.Suggestions(name, 3)}
	}
	entry, ok := m.cat.Models[res.CanonicalName]
	if !ok {
		return catalog.ModelEntry{}, catalog.NameResolution{}, &ConfigurationError{Message: fmt.Sprintf("resolved name %q has no catalog entry", res.CanonicalName)}
	}
	return entry, res, nil
}

// Converse resolves req.ModelName, builds the ordered retry-target
// sequence, and drives it through the retry engine to completion.
func (m *Manager) Converse(ctx context.Context, req ConverseRequest) (retry.Result, error) {
	if len(req.Args.Messages) == 0 {
		return retry.Result{}, &RequestValidationError{Message: "messages must not be empty"}
	}

	entry, _, err := m.resolveEntry(req.ModelName)
	if err != nil {
		return retry.Result{}, err
	}

	m.mu.RLock()
	regions := req.Regions
	if len(regions) == 0 {
		regions = m.cfg.Regions
	}
	strategy := retry.Strategy(m.cfg.RetryStrategy)
	m.mu.RUnlock()

	targets := retry.BuildTargets([]catalog.ModelEntry{entry}, regions, strategy)
	if len(targets) == 0 {
		return retry.Result{}, &ConfigurationError{Message: fmt.Sprintf("model %q has no access method in any configured region", entry.CanonicalName)}
	}

	result, err := m.engine.Run(ctx, targets, req.Args)
	m.stats.record(result.AccessMethodUsed, result.ProfileUsed)
	return result, err
}

// ConverseParallel distributes requests across regions via the
// configured load-balancing strategy and drives them through the
// bounded parallel executor.
func (m *Manager) ConverseParallel(ctx context.Context, requests []BatchRequest, targetRegionsPerRequest int, strategy parallel.Strategy) (parallel.Response, error) {
	if len(requests) == 0 {
		return parallel.Response{}, &RequestValidationError{Message: "requests must not be empty"}
	}
	requests = assignMissingRequestIDs(requests)
	if err := validateUniqueRequestIDs(requests); err != nil {
		return parallel.Response{}, err
	}

	m.mu.RLock()
	regions := m.cfg.Regions
	retryStrategy := retry.Strategy(m.cfg.RetryStrategy)
	m.mu.RUnlock()

	if targetRegionsPerRequest <= 0 {
		targetRegionsPerRequest = m.cfg.TargetRegionsPerRequest
	}

	distReqs := make([]parallel.DistributeRequest, len(requests))
	for i, r := range requests {
		distReqs[i] = parallel.DistributeRequest{ID: r.RequestID, Priority: r.Priority}
	}
	assignments, err := m.distributor.Distribute(distReqs, regions, targetRegionsPerRequest, strategy)
	if err != nil {
		return parallel.Response{}, &ConfigurationError{Message: err.Error()}
	}
	assignmentByID := make(map[string]parallel.RequestAssignment, len(assignments))
	for _, a := range assignments {
		assignmentByID[a.RequestID] = a
	}

	items := make([]parallel.WorkItem, len(requests))
	for i, r := range requests {
		entry, _, err := m.resolveEntry(r.ModelName)
		if err != nil {
			return parallel.Response{}, err
		}
		items[i] = parallel.WorkItem{
			RequestID: r.RequestID,
			Entries:   []catalog.ModelEntry{entry},
			Regions:   assignmentByID[r.RequestID].AssignedRegions,
			Strategy:  retryStrategy,
			Args:      r.Args,
		}
	}

	resp := m.executor.Run(ctx, items, assignments)
	for _, r := range resp.RequestResponses {
		m.stats.record(r.AccessMethodUsed, r.ProfileUsed)
	}

	if !resp.Success {
		return resp, &ParallelExecutionError{FailedRequestIDs: resp.FailedRequestIDs}
	}
	return resp, nil
}

// assignMissingRequestIDs fills in a generated request_id for any
// request that left it blank, mirroring app/bootstrap.go's
// uuid.New().String() session-identifier pattern. A blank request_id is
// not itself an error (spec.md's uniqueness check only rejects a
// duplicate *non-null* request_id) — it just means the caller doesn't
// need to correlate that response by a name of their own choosing.
func assignMissingRequestIDs(requests []BatchRequest) []BatchRequest {
	out := make([]BatchRequest, len(requests))
	copy(out, requests)
	for i, r := range out {
		if r.RequestID == "" {
			out[i].RequestID = uuid.New().String()
		}
	}
	return out
}

func validateUniqueRequestIDs(requests []BatchRequest) error {
	seen := make(map[string]bool, len(requests))
	for _, r := range requests {
		if seen[r.RequestID] {
			return &RequestValidationError{Message: fmt.Sprintf("duplicate request_id %q in batch", r.RequestID)}
		}
		seen[r.RequestID] = true
	}
	return nil
}

// RefreshCatalog re-derives the Catalog via the configured source chain
// and swaps it in atomically. Existing in-flight calls keep using the
// catalog snapshot they already resolved against.
func (m *Manager) RefreshCatalog(ctx context.Context) error {
	cat, err := m.fetchCatalog(ctx)
	if err != nil {
		return fmt.Errorf("manager: refreshing catalog: %w", err)
	}

	m.mu.Lock()
	m.cat = cat
	m.resolver = catalog.NewResolver(cat)
	m.mu.Unlock()
	return nil
}

// GetAccessMethodStatistics returns the cumulative per-access-method
// call counts and profile-usage percentage observed across every
// Converse and ConverseParallel call made through this manager so far.
func (m *Manager) GetAccessMethodStatistics() AccessMethodStatistics {
	return m.stats.snapshot()
}

// GetAvailableModels returns the sorted canonical names of every model
// in the current catalog.
func (m *Manager) GetAvailableModels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cat.ModelNames()
}

// GetAvailableRegions returns the sorted union of region codes present
// in the current catalog.
func (m *Manager) GetAvailableRegions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cat.Regions()
}

// configuredRegions is a small accessor used by validate.go, kept
// separate from the exported surface.
func (m *Manager) configuredRegions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]string(nil), m.cfg.Regions...)
	sort.Strings(out)
	return out
}
