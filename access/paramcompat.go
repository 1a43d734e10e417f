package access

import "sync"

type compatKey struct {
	modelID     string
	region      string
	fingerprint string
}

// CompatibilityTracker records, per (model_id, region,
// parameter-fingerprint), whether a set of additional request
// parameters is known to be rejected by the provider. Unknown
// combinations are not incompatible. Same mutex-guarded-map shape as
// Tracker, kept as a separate type since the two trackers are queried
// and reset independently.
type CompatibilityTracker struct {
	mu    sync.Mutex
	known map[compatKey]bool
}

// NewCompatibilityTracker creates an empty tracker.
func NewCompatibilityTracker() *CompatibilityTracker {
	return &CompatibilityTracker{known: map[compatKey]bool{}}
}

var (
	defaultCompatOnce sync.Once
	defaultCompatInst *CompatibilityTracker
)

// DefaultCompatibilityTracker returns the process-wide Parameter
// Compatibility Tracker singleton.
func DefaultCompatibilityTracker() *CompatibilityTracker {
	defaultCompatOnce.Do(func() {
		defaultCompatInst = NewCompatibilityTracker()
	})
	return defaultCompatInst
}

func (c *CompatibilityTracker) key(modelID, region string, params map[string]any) compatKey {
	return compatKey{modelID: modelID, region: region, fingerprint: Fingerprint(params)}
}

// RecordSuccess marks (modelID, region, params) as compatible.
func (c *CompatibilityTracker) RecordSuccess(modelID, region string, params map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.known[c.key(modelID, region, params)] = true
}

// RecordFailure marks (modelID, region, params) as incompatible. The
// error argument is accepted for call-site symmetry with
// record_failure(model, region, params, error) but is not otherwise
// consulted — incompatibility is keyed purely on the fingerprint.
func (c *CompatibilityTracker) RecordFailure(modelID, region string, params map[string]any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.known[c.key(modelID, region, params)] = false
}

// IsKnownIncompatible reports whether (modelID, region, params) was
// previously recorded as incompatible. Unknown combinations report
// false.
func (c *CompatibilityTracker) IsKnownIncompatible(modelID, region string, params map[string]any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	compatible, ok := c.known[c.key(modelID, region, params)]
	return ok && !compatible
}

// ResetForTesting clears all tracked compatibility state.
func (c *CompatibilityTracker) ResetForTesting() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.known = map[compatKey]bool{}
}
