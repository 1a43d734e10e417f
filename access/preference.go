package access

import (
	"sync"
	"time"
)

// Preference is a learned access-method preference for one (model_id,
// region) pair. Exactly one of PreferDirect/PreferRegional/PreferGlobal
// is true.
type Preference struct {
	PreferDirect     bool
	PreferRegional   bool
	PreferGlobal     bool
	LearnedFromError bool
	LastUpdated      time.Time
}

type prefKey struct {
	modelID string
	region  string
}

// Tracker is a process-wide, mutex-guarded map of (model_id, region) ->
// Preference. Grounded on engine/policy/audit.go's mutex-guarded
// append-only state pattern, adapted here to an in-memory map instead
// of a file. All methods take the mutex; hold time is O(1).
type Tracker struct {
	mu    sync.Mutex
	prefs map[prefKey]Preference
}

// NewTracker creates an empty preference tracker.
func NewTracker() *Tracker {
	return &Tracker{prefs: map[prefKey]Preference{}}
}

var (
	defaultTrackerOnce sync.Once
	defaultTrackerInst *Tracker
)

// DefaultTracker returns the process-wide Preference Tracker singleton.
func DefaultTracker() *Tracker {
	defaultTrackerOnce.Do(func() {
		defaultTrackerInst = NewTracker()
	})
	return defaultTrackerInst
}

// RecordSuccess stores a preference for (modelID, region) reflecting
// the access method that just succeeded, learned_from_error=false.
// Concurrent calls for the same key are last-write-wins.
func (t *Tracker) RecordSuccess(modelID, region string, method Method) {
	p := Preference{LastUpdated: time.Now()}
	switch method {
	case MethodDirect:
		p.PreferDirect = true
	case MethodRegional:
		p.PreferRegional = true
	case MethodGlobal:
		p.PreferGlobal = true
	default:
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.prefs[prefKey{modelID, region}] = p
}

// RecordProfileRequirement stores a preference for (modelID, region)
// learned from a profile-required error: prefer_regional if a regional
// profile is available, else prefer_global. learned_from_error is true.
func (t *Tracker) RecordProfileRequirement(modelID, region string, hasRegionalProfile bool) {
	p := Preference{LearnedFromError: true, LastUpdated: time.Now()}
	if hasRegionalProfile {
		p.PreferRegional = true
	} else {
		p.PreferGlobal = true
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.prefs[prefKey{modelID, region}] = p
}

// GetPreference returns the stored preference for (modelID, region), if
// any.
func (t *Tracker) GetPreference(modelID, region string) (Preference, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.prefs[prefKey{modelID, region}]
	return p, ok
}

// RequiresProfile reports whether the learned preference for (modelID,
// region) says direct access should not be attempted.
func (t *Tracker) RequiresProfile(modelID, region string) bool {
	p, ok := t.GetPreference(modelID, region)
	if !ok {
		return false
	}
	return p.PreferRegional || p.PreferGlobal
}

// ResetForTesting clears all tracked preferences. The only supported
// way to clear tracker state.
func (t *Tracker) ResetForTesting() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prefs = map[prefKey]Preference{}
}
