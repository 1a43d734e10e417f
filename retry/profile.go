package retry

import (
	"llmrouter/access"
	"llmrouter/catalog"
)

// resolveProfileRetry implements spec.md §4.2's profile-required
// substitution: prefer the regional profile, fall back to global, or
// report unavailable.
func resolveProfileRetry(info catalog.AccessInfo) (modelID string, method access.Method, ok bool) {
	if info.HasRegionalProfile && info.RegionalProfileID != "" {
		return info.RegionalProfileID, access.MethodRegional, true
	}
	if info.HasGlobalProfile && info.GlobalProfileID != "" {
		return info.GlobalProfileID, access.MethodGlobal, true
	}
	return "", "", false
}

// profileIDFor returns the profile id associated with method, or "" for
// a direct dispatch.
func profileIDFor(info catalog.AccessInfo, method access.Method) string {
	switch method {
	case access.MethodRegional:
		return info.RegionalProfileID
	case access.MethodGlobal:
		return info.GlobalProfileID
	default:
		return ""
	}
}
