// Package access picks among a model's available access methods (direct
// invocation, regional cross-region-inference-profile, global CRIS) and
// tracks learned per-(model, region) preferences and parameter
// compatibility across calls.
package access

import "llmrouter/catalog"

// Method identifies one of a model's available access methods.
type Method string

const (
	MethodDirect   Method = "direct"
	MethodRegional Method = "regional_cris"
	MethodGlobal   Method = "global_cris"
)

// defaultOrder is the fallback order consulted when no learned
// preference applies: direct, then regional profile, then global
// profile.
var defaultOrder = []Method{MethodDirect, MethodRegional, MethodGlobal}

func modelIDFor(info catalog.AccessInfo, method Method) (string, bool) {
	switch method {
	case MethodDirect:
		return info.DirectModelID, info.HasDirect
	case MethodRegional:
		return info.RegionalProfileID, info.HasRegionalProfile
	case MethodGlobal:
		return info.GlobalProfileID, info.HasGlobalProfile
	default:
		return "", false
	}
}

// Select picks the model-id and access method to dispatch for info. If
// preference is non-nil and its preferred method is available on info,
// that method is returned. Otherwise the default order (direct ->
// regional -> global) is followed. At least one method is always
// available — an invariant enforced by AccessInfo.Validate.
//
// Determinism contract: for fixed inputs, Select always returns the
// same result.
func Select(info catalog.AccessInfo, preference *Preference) (modelID string, method Method) {
	if preference != nil {
		if preferred, ok := preferredMethod(*preference); ok {
			if id, available := modelIDFor(info, preferred); available {
				return id, preferred
			}
		}
	}

	for _, m := range defaultOrder {
		if id, available := modelIDFor(info, m); available {
			return id, m
		}
	}
	return "", ""
}

func preferredMethod(p Preference) (Method, bool) {
	switch {
	case p.PreferDirect:
		return MethodDirect, true
	case p.PreferRegional:
		return MethodRegional, true
	case p.PreferGlobal:
		return MethodGlobal, true
	default:
		return "", false
	}
}

// FallbackTarget is one alternative access method still available after
// another has failed.
type FallbackTarget struct {
	ModelID string
	Method  Method
}

// FallbackMethods returns the model-id/method pairs remaining available
// on info, in default order, excluding failedMethod.
func FallbackMethods(info catalog.AccessInfo, failedMethod Method) []FallbackTarget {
	var out []FallbackTarget
	for _, m := range defaultOrder {
		if m == failedMethod {
			continue
		}
		if id, available := modelIDFor(info, m); available {
			out = append(out, FallbackTarget{ModelID: id, Method: m})
		}
	}
	return out
}
