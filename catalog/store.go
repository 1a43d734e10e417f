// Package catalog holds the model catalog: canonical model entries, their
// per-region access methods, the alias/fuzzy name resolver, and the
// load/cache pipeline that assembles a Catalog from a live API, a file
// cache, an in-memory cache, or a bundled fallback artifact.
//
// Grounded on providers/bedrock/bedrock.go (ListFoundationModels as the
// live source) and providers/bedrock/pricing.go (the read/write JSON cache
// file pattern, adapted here from pricing rows to catalog entries).
package catalog

import (
	"fmt"
	"sort"
	"time"
)

// AccessMethod identifies how a model is invoked in a given region.
type AccessMethod string

const (
	AccessDirect      AccessMethod = "direct"
	AccessRegionalCRIS AccessMethod = "regional_cris"
	AccessGlobalCRIS   AccessMethod = "global_cris"
	AccessUnknown      AccessMethod = "unknown"
)

// Source identifies where a Catalog's data came from.
type Source string

const (
	SourceAPI         Source = "api"
	SourceCacheFile   Source = "cache-file"
	SourceCacheMemory Source = "cache-memory"
	SourceBundled     Source = "bundled"
)

// AccessInfo describes the ways a model can be reached in one region.
// Invariant: at least one of HasDirect/HasRegionalProfile/HasGlobalProfile
// is true, and each corresponding *ID field is non-empty iff its flag is
// set.
type AccessInfo struct {
	Region string `json:"region"`

	HasDirect          bool `json:"has_direct"`
	HasRegionalProfile bool `json:"has_regional_profile"`
	HasGlobalProfile   bool `json:"has_global_profile"`

	DirectModelID     string `json:"direct_model_id,omitempty"`
	RegionalProfileID string `json:"regional_profile_id,omitempty"`
	GlobalProfileID   string `json:"global_profile_id,omitempty"`

	// ProfileRequiredUnavailable is set by the retry engine (C9) when a
	// profile-required error was observed but no profile access method
	// exists for this target; surfaced as a warning rather than retried.
	ProfileRequiredUnavailable bool `json:"profile_required_unavailable,omitempty"`
}

// Validate checks the AccessInfo invariant described above.
func (a AccessInfo) Validate() error {
	if !a.HasDirect && !a.HasRegionalProfile && !a.HasGlobalProfile {
		return fmt.Errorf("catalog: access info for region %q has no access method", a.Region)
	}
	if a.HasDirect && a.DirectModelID == "" {
		return fmt.Errorf("catalog: region %q has_direct but no direct_model_id", a.Region)
	}
	if !a.HasDirect && a.DirectModelID != "" {
		return fmt.Errorf("catalog: region %q has direct_model_id but not has_direct", a.Region)
	}
	if a.HasRegionalProfile && a.RegionalProfileID == "" {
		return fmt.Errorf("catalog: region %q has_regional_profile but no regional_profile_id", a.Region)
	}
	if !a.HasRegionalProfile && a.RegionalProfileID != "" {
		return fmt.Errorf("catalog: region %q has regional_profile_id but not has_regional_profile", a.Region)
	}
	if a.HasGlobalProfile && a.GlobalProfileID == "" {
		return fmt.Errorf("catalog: region %q has_global_profile but no global_profile_id", a.Region)
	}
	if !a.HasGlobalProfile && a.GlobalProfileID != "" {
		return fmt.Errorf("catalog: region %q has global_profile_id but not has_global_profile", a.Region)
	}
	return nil
}

// ModelEntry is the canonical record for one model across regions.
// Immutable after catalog load.
type ModelEntry struct {
	CanonicalName string   `json:"canonical_name"`
	ModelID       string   `json:"model_id"`
	Provider      string   `json:"provider"`
	InputModalities  []string `json:"input_modalities"`
	OutputModalities []string `json:"output_modalities"`
	StreamingSupported bool  `json:"streaming_supported"`
	Documentation    []string `json:"documentation,omitempty"`

	// Regions maps region code to the access methods available there.
	Regions map[string]AccessInfo `json:"regions"`
}

// Metadata describes how a Catalog was assembled.
type Metadata struct {
	Source         Source    `json:"source"`
	RetrievedAt    time.Time `json:"retrieved_at"`
	RegionsQueried []string  `json:"regions_queried"`
	PackageVersion string    `json:"package_version"`

	// CostClass is an optional enrichment populated from the AWS Pricing
	// API (see enrich_pricing.go); never consulted by retry/selection
	// logic, purely informational.
	CostClass map[string]string `json:"cost_class,omitempty"`
}

// Catalog is the union of all models x regions x access methods known to
// the router, plus provenance metadata. Keys are canonical names, unique
// after normalization.
type Catalog struct {
	Models   map[string]ModelEntry `json:"models"`
	Metadata Metadata              `json:"metadata"`
}

// PackageVersion is compared major.minor against a cached catalog's
// recorded version; patch differences are tolerated (see DESIGN.md
// Open Question decision).
const PackageVersion = "1.4.0"

// Validate checks catalog-level invariants: unique canonical keys (trivial
// given the map) and well-formed per-model access info.
func (c *Catalog) Validate() error {
	for name, entry := range c.Models {
		if Normalize(name) != Normalize(entry.CanonicalName) {
			return fmt.Errorf("catalog: map key %q does not match entry canonical name %q", name, entry.CanonicalName)
		}
		for region, info := range entry.Regions {
			if info.Region != region {
				return fmt.Errorf("catalog: model %q region map key %q does not match AccessInfo.Region %q", name, region, info.Region)
			}
			if err := info.Validate(); err != nil {
				return fmt.Errorf("catalog: model %q: %w", name, err)
			}
		}
	}
	return nil
}

// Regions returns the sorted union of all region codes present in the
// catalog.
func (c *Catalog) Regions() []string {
	seen := map[string]bool{}
	for _, entry := range c.Models {
		for region := range entry.Regions {
			seen[region] = true
		}
	}
	out := make([]string, 0, len(seen))
	for region := range seen {
		out = append(out, region)
	}
	sort.Strings(out)
	return out
}

// ModelNames returns the sorted list of canonical model names.
func (c *Catalog) ModelNames() []string {
	out := make([]string, 0, len(c.Models))
	for name := range c.Models {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
