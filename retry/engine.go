// Package retry implements the retry-and-failover state machine driving
// a single call across an ordered list of targets: access-method
// selection, profile-required immediate-retry, feature-disable fallback,
// parameter-incompatibility stripping, and backoff between targets.
// Adapted from engine/policy/evaluator.go's decision-loop shape (walk an
// ordered candidate list, consult trackers, short-circuit on a decisive
// signal) and engine/policy/audit.go's attempt-logging pattern, rebuilt
// around the external transport.Caller contract instead of a tool-policy
// decision.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"sort"
	"time"

	"llmrouter/access"
	"llmrouter/classify"
	"llmrouter/transport"
)

// Config mirrors spec.md §4.2's RetryConfig.
type Config struct {
	MaxRetries            int
	BaseDelay             time.Duration
	MaxDelay              time.Duration
	BackoffMultiplier     float64
	EnableFeatureFallback bool
	ThrottleDelay         time.Duration
	RetryStrategy         Strategy
}

// featureArgKeys maps a recognised feature name to the Args mutation
// that disables it. Order matches the feature list in spec.md §4.2.
var featureArgKeys = map[string]func(*transport.Args){
	"guardrails":       func(a *transport.Args) { a.GuardrailConfig = nil },
	"tool_use":         func(a *transport.Args) { a.ToolConfig = nil },
	"system_messages":  func(a *transport.Args) { a.System = nil },
	"prompt_caching":   func(a *transport.Args) { a.AdditionalModelRequestFields = stripCacheControl(a.AdditionalModelRequestFields) },
	"image_content":    func(a *transport.Args) { a.Messages = stripContentType(a.Messages, "image") },
	"document_content": func(a *transport.Args) { a.Messages = stripContentType(a.Messages, "document") },
	"video_content":    func(a *transport.Args) { a.Messages = stripContentType(a.Messages, "video") },
}

var contentFeatureByType = map[string]string{
	"video":    "video_content",
	"image":    "image_content",
	"document": "document_content",
}

// Result is the outcome of a completed Run: either Success is true and
// Response/AccessMethodUsed/ProfileUsed are populated, or Run returned a
// non-nil error (an *ExhaustedError on normal exhaustion).
type Result struct {
	Success          bool
	Response         transport.Response
	AccessMethodUsed access.Method
	ProfileUsed      bool
	ProfileID        string
	Attempts         []AttemptRecord
	Warnings         []string
	FeaturesDisabled []string
}

// Engine drives the per-call state machine described in spec.md §4.2/§4.8.
type Engine struct {
	Caller        transport.Caller
	AccessTracker *access.Tracker
	CompatTracker *access.CompatibilityTracker
	Logger        *AttemptLogger // optional; nil disables attempt logging
	Config        Config
}

// NewEngine constructs an Engine with the process-wide default trackers.
func NewEngine(caller transport.Caller, cfg Config) *Engine {
	return &Engine{
		Caller:        caller,
		AccessTracker: access.DefaultTracker(),
		CompatTracker: access.DefaultCompatibilityTracker(),
		Config:        cfg,
	}
}

// Run executes the state machine across targets for one call, returning
// the first successful Result or an *ExhaustedError.
func (e *Engine) Run(ctx context.Context, targets []Target, args transport.Args) (Result, error) {
	var (
		attempts     []AttemptRecord
		warnings     []string
		disabledSet  = make(map[string]bool)
		lastErrs     []error
		modelsTried  = make(map[string]bool)
		regionsTried = make(map[string]bool)
		attemptNum   int
	)

	for _, target := range targets {
		modelsTried[target.ModelName] = true
		regionsTried[target.Region] = true

		pref, _ := e.AccessTracker.GetPreference(target.ModelID, target.Region)
		var prefPtr *access.Preference
		if hasPreference(pref) {
			prefPtr = &pref
		}
		modelID, method := access.Select(target.Access, prefPtr)

		callArgs := args.Clone()
		targetDone, result, attemptsForTarget, targetWarnings, err := e.runTarget(ctx, target, modelID, method, callArgs, &attemptNum, disabledSet)
		attempts = append(attempts, attemptsForTarget...)
		warnings = append(warnings, targetWarnings...)

		if targetDone && err == nil {
			result.Attempts = attempts
			result.Warnings = warnings
			result.FeaturesDisabled = sortedKeys(disabledSet)
			e.logAll(attemptsForTarget)
			return result, nil
		}

		if err != nil {
			lastErrs = append(lastErrs, err)
			if c := classify.Classify(err); c.Kind == classify.KindThrottled {
				e.sleep(ctx, e.backoffDelay(e.Config.ThrottleDelay, 0))
			} else if c.Kind == classify.KindRetryableTransient {
				e.sleep(ctx, e.backoffDelay(e.Config.BaseDelay, attemptNum))
			} else if c.Kind == classify.KindParameterIncompat {
				args.AdditionalModelRequestFields = stripParams(args.AdditionalModelRequestFields, c.Parameters)
			}
		}

		e.logAll(attemptsForTarget)
	}

	return Result{}, e.exhausted(len(attempts), lastErrs, modelsTried, regionsTried)
}

// runTarget drives dispatch/classify/feature-fallback/profile-retry for
// a single target until it either succeeds, needs to move to the next
// target, or the retry budget for this target is spent. The returned
// bool reports whether the target produced a terminal success.
func (e *Engine) runTarget(
	ctx context.Context,
	target Target,
	modelID string,
	method access.Method,
	args transport.Args,
	attemptNum *int,
	disabledSet map[string]bool,
) (bool, Result, []AttemptRecord, []string, error) {
	var records []AttemptRecord
	var warnings []string
	currentModelID := modelID
	currentMethod := method

	for {
		if e.CompatTracker.IsKnownIncompatible(currentModelID, target.Region, args.AdditionalModelRequestFields) {
			return false, Result{}, records, warnings, errParameterKnownIncompatible
		}

		*attemptNum++
		record := AttemptRecord{
			Model:         target.ModelName,
			Region:        target.Region,
			AccessMethod:  currentMethod,
			AttemptNumber: *attemptNum,
			Start:         time.Now().UTC(),
		}

		resp, callErr := e.Caller.Call(ctx, target.Region, currentModelID, args)
		record.close(callErr == nil, callErr)
		records = append(records, record)

		if callErr == nil {
			e.AccessTracker.RecordSuccess(target.ModelID, target.Region, currentMethod)
			e.CompatTracker.RecordSuccess(currentModelID, target.Region, args.AdditionalModelRequestFields)
			return true, Result{
				Success:          true,
				Response:         resp,
				AccessMethodUsed: currentMethod,
				ProfileUsed:      currentMethod != access.MethodDirect,
				ProfileID:        profileIDFor(target.Access, currentMethod),
			}, records, warnings, nil
		}

		c := classify.Classify(callErr)

		switch c.Kind {
		case classify.KindProfileRequired:
			nextModelID, nextMethod, ok := resolveProfileRetry(target.Access)
			if ok {
				*attemptNum--
				records = records[:len(records)-1]
				currentModelID, currentMethod = nextModelID, nextMethod
				e.AccessTracker.RecordProfileRequirement(target.ModelID, target.Region, target.Access.HasRegionalProfile)
				continue
			}
			target.Access.ProfileRequiredUnavailable = true
			warnings = append(warnings, fmt.Sprintf(
				"model %s in region %s requires an inference profile but none is available in the catalog",
				target.ModelName, target.Region))
			return false, Result{}, records, warnings, callErr

		case classify.KindFeatureIncompatible:
			if e.Config.EnableFeatureFallback && !disabledSet[c.Feature] {
				if mutate, ok := featureArgKeys[c.Feature]; ok {
					mutate(&args)
					disabledSet[c.Feature] = true
					warnings = append(warnings, fmt.Sprintf("disabled feature %q after an incompatibility error", c.Feature))
					if *attemptNum < e.Config.MaxRetries+1 {
						continue
					}
				}
			}
			return false, Result{}, records, warnings, callErr

		case classify.KindContentIncompatible:
			feature := contentFeatureByType[c.ContentType]
			if e.Config.EnableFeatureFallback && feature != "" && !disabledSet[feature] {
				if mutate, ok := featureArgKeys[feature]; ok {
					mutate(&args)
					disabledSet[feature] = true
					warnings = append(warnings, fmt.Sprintf("disabled feature %q after an incompatibility error", feature))
					if *attemptNum < e.Config.MaxRetries+1 {
						continue
					}
				}
			}
			return false, Result{}, records, warnings, callErr

		case classify.KindParameterIncompat:
			e.CompatTracker.RecordFailure(currentModelID, target.Region, args.AdditionalModelRequestFields, callErr)
			args.AdditionalModelRequestFields = stripParams(args.AdditionalModelRequestFields, c.Parameters)
			// Parameter incompatibility drops the attempt count: it
			// moves on to the next target without consuming the retry
			// budget, same as a profile-required substitution.
			*attemptNum--
			records = records[:len(records)-1]
			return false, Result{}, records, warnings, callErr

		default:
			return false, Result{}, records, warnings, callErr
		}
	}
}

func (e *Engine) logAll(records []AttemptRecord) {
	if e.Logger == nil {
		return
	}
	for _, r := range records {
		_ = e.Logger.Log(r)
	}
}

func (e *Engine) backoffDelay(base time.Duration, attempt int) time.Duration {
	d := float64(base) * math.Pow(e.Config.BackoffMultiplier, float64(attempt))
	if max := float64(e.Config.MaxDelay); max > 0 && d > max {
		d = max
	}
	jitter := d * 0.2 * (2*rand.Float64() - 1)
	d += jitter
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (e *Engine) exhausted(attemptsMade int, errs []error, models, regions map[string]bool) *ExhaustedError {
	ee := &ExhaustedError{
		AttemptsMade: attemptsMade,
		LastErrors:   errs,
		ModelsTried:  keysOf(models),
		RegionsTried: keysOf(regions),
		Details:      map[string]any{},
	}

	if len(errs) == 0 {
		return ee
	}

	var profileModels []string
	var allParamIncompat = true
	var params []string
	for _, err := range errs {
		c := classify.Classify(err)
		if c.Kind == classify.KindProfileRequired {
			profileModels = append(profileModels, c.ProfileRequiredModelID)
		}
		if c.Kind == classify.KindParameterIncompat {
			params = append(params, c.Parameters...)
		} else {
			allParamIncompat = false
		}
	}

	if len(profileModels) >= len(errs)/2 && len(profileModels) > 0 {
		ee.Details["reason"] = profileRequiredMessage(dedupeStrings(profileModels))
		ee.Details["profile_required_models"] = dedupeStrings(profileModels)
	} else if allParamIncompat && len(params) > 0 {
		ee.Details["reason"] = parameterIncompatibleMessage(dedupeStrings(params))
		ee.Details["parameters"] = dedupeStrings(params)
	}

	return ee
}

var errParameterKnownIncompatible = errors.New("retry: parameters known-incompatible for this target, skipping dispatch")

func hasPreference(p access.Preference) bool {
	return p.PreferDirect || p.PreferRegional || p.PreferGlobal
}

func keysOf(m map[string]bool) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := keysOf(m)
	sort.Strings(out)
	return out
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

var cacheControlKeyRe = regexp.MustCompile(`(?i)cache`)

func stripCacheControl(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if cacheControlKeyRe.MatchString(k) {
			continue
		}
		out[k] = v
	}
	return out
}

func stripParams(fields map[string]any, names []string) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	strip := make(map[string]bool, len(names))
	for _, n := range names {
		strip[n] = true
	}
	for k, v := range fields {
		if strip[k] {
			continue
		}
		out[k] = v
	}
	return out
}

func stripContentType(msgs []transport.Message, kind string) []transport.Message {
	out := make([]transport.Message, len(msgs))
	for i, m := range msgs {
		var kept []transport.ContentBlock
		for _, block := range m.Content {
			if block.Type == kind {
				continue
			}
			kept = append(kept, block)
		}
		out[i] = transport.Message{Role: m.Role, Content: kept}
	}
	return out
}
