package retry

import "llmrouter/catalog"

// Target is the ephemeral (model_canonical_name, region, AccessInfo) tuple
// the manager builds for a single call and the engine iterates over. It
// belongs to the call that created it and never outlives it. ModelID is
// the catalog's canonical model_id for the entry (the key the access and
// compatibility trackers key their state on), distinct from the
// per-access-method id carried inside Access.
type Target struct {
	ModelName string
	ModelID   string
	Region    string
	Access    catalog.AccessInfo
}

// Strategy controls how the manager orders a call's target list.
type Strategy string

const (
	// StrategyModelFirst exhausts all regions for model M1 before M2.
	StrategyModelFirst Strategy = "model_first"
	// StrategyRegionFirst exhausts all models in region R1 before R2.
	StrategyRegionFirst Strategy = "region_first"
)

// BuildTargets orders a call's candidate models into a stable target
// list per strategy. entriesInOrder fixes the model ordering (e.g. the
// resolved primary model followed by configured fallback models); each
// entry contributes the regions of regionOrder that appear in its
// Regions map, in regionOrder's order.
func BuildTargets(entriesInOrder []catalog.ModelEntry, regionOrder []string, strategy Strategy) []Target {
	switch strategy {
	case StrategyRegionFirst:
		return buildRegionFirst(entriesInOrder, regionOrder)
	default:
		return buildModelFirst(entriesInOrder, regionOrder)
	}
}

func buildModelFirst(entries []catalog.ModelEntry, regionOrder []string) []Target {
	var out []Target
	for _, entry := range entries {
		for _, region := range regionsFor(entry, regionOrder) {
			out = append(out, Target{
				ModelName: entry.CanonicalName,
				ModelID:   entry.ModelID,
				Region:    region,
				Access:    entry.Regions[region],
			})
		}
	}
	return out
}

func buildRegionFirst(entries []catalog.ModelEntry, regionOrder []string) []Target {
	var out []Target
	for _, region := range regionOrder {
		for _, entry := range entries {
			if access, ok := entry.Regions[region]; ok {
				out = append(out, Target{
					ModelName: entry.CanonicalName,
					ModelID:   entry.ModelID,
					Region:    region,
					Access:    access,
				})
			}
		}
	}
	return out
}

// regionsFor returns the subset of regionOrder for which entry has
// access info, preserving regionOrder's ordering.
func regionsFor(entry catalog.ModelEntry, regionOrder []string) []string {
	var out []string
	for _, region := range regionOrder {
		if _, ok := entry.Regions[region]; ok {
			out = append(out, region)
		}
	}
	return out
}
