package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrock/types"
)

// RegionLister is the subset of bedrock.Client used for live catalog
// fetch in one region, narrowed for testability the way
// providers/bedrock/bedrock.go's modelLister interface is.
type RegionLister interface {
	ListFoundationModels(ctx context.Context, params *bedrock.ListFoundationModelsInput, optFns ...func(*bedrock.Options)) (*bedrock.ListFoundationModelsOutput, error)
	ListInferenceProfiles(ctx context.Context, params *bedrock.ListInferenceProfilesInput, optFns ...func(*bedrock.Options)) (*bedrock.ListInferenceProfilesOutput, error)
}

// FetchLive assembles a Catalog from Bedrock's control-plane API: one
// ListFoundationModels + ListInferenceProfiles pair per region, merged
// into per-model, per-region AccessInfo. Grounded on
// providers/bedrock/bedrock.go's ListFoundationModels call, extended
// with ListInferenceProfiles to populate regional/global CRIS access.
func FetchLive(ctx context.Context, clientForRegion func(region string) RegionLister, regions []string) (*Catalog, error) {
	cat := &Catalog{
		Models: map[string]ModelEntry{},
		Metadata: Metadata{
			Source:         SourceAPI,
			RetrievedAt:    time.Now(),
			RegionsQueried: append([]string(nil), regions...),
			PackageVersion: PackageVersion,
		},
	}

	for _, region := range regions {
		client := clientForRegion(region)

		foundation, err := client.ListFoundationModels(ctx, &bedrock.ListFoundationModelsInput{})
		if err != nil {
			return nil, fmt.Errorf("catalog: listing foundation models in %s: %w", region, err)
		}

		profiles, err := client.ListInferenceProfiles(ctx, &bedrock.ListInferenceProfilesInput{})
		if err != nil {
			return nil, fmt.Errorf("catalog: listing inference profiles in %s: %w", region, err)
		}

		regionalProfiles, globalProfiles := indexProfilesByModel(profiles.InferenceProfileSummaries)

		for _, summary := range foundation.ModelSummaries {
			if !isConverseCapable(summary) {
				continue
			}

			modelID := aws.ToString(summary.ModelId)
			name := aws.ToString(summary.ModelName)
			if name == "" {
				name = modelID
			}

			entry, ok := cat.Models[name]
			if !ok {
				entry = ModelEntry{
					CanonicalName:      name,
					ModelID:            modelID,
					Provider:           aws.ToString(summary.ProviderName),
					InputModalities:    modalitiesToStrings(summary.InputModalities),
					OutputModalities:   modalitiesToStrings(summary.OutputModalities),
					StreamingSupported: aws.ToBool(summary.ResponseStreamingSupported),
					Regions:            map[string]AccessInfo{},
				}
			}

			access := AccessInfo{
				Region:        region,
				HasDirect:     true,
				DirectModelID: modelID,
			}
			if profileID, ok := regionalProfiles[modelID]; ok {
				access.HasRegionalProfile = true
				access.RegionalProfileID = profileID
			}
			if profileID, ok := globalProfiles[modelID]; ok {
				access.HasGlobalProfile = true
				access.GlobalProfileID = profileID
			}
			entry.Regions[region] = access
			cat.Models[name] = entry
		}
	}

	return cat, nil
}

// isConverseCapable filters to models usable through the Converse API:
// text-capable output and actively supported, mirroring
// providers/bedrock/bedrock.go's isUsableModel but checking output
// modality rather than streaming support, since Converse (unlike
// ConverseStream) does not require it.
func isConverseCapable(s types.FoundationModelSummary) bool {
	if s.ModelLifecycle != nil && s.ModelLifecycle.Status != types.FoundationModelLifecycleStatusActive {
		return false
	}
	return slices.Contains(s.OutputModalities, types.ModelModalityText)
}

func modalitiesToStrings(in []types.ModelModality) []string {
	out := make([]string, len(in))
	for i, m := range in {
		out[i] = string(m)
	}
	return out
}

// indexProfilesByModel splits inference-profile summaries into regional
// and global maps keyed by the underlying foundation model id. Scope is
// inferred from the profile id's dot-separated prefix ("us.", "eu.",
// "apac." etc. are regional; "global." is global) — grounded on
// test_model_cris_correlator.py's region-prefix-based correlation
// between a CRIS profile id and the foundation models it fronts.
func indexProfilesByModel(summaries []types.InferenceProfileSummary) (regional, global map[string]string) {
	regional = map[string]string{}
	global = map[string]string{}

	for _, p := range summaries {
		profileID := aws.ToString(p.InferenceProfileId)
		if profileID == "" {
			continue
		}
		isGlobal := strings.HasPrefix(profileID, "global.")

		for _, m := range p.Models {
			modelID := modelIDFromArn(aws.ToString(m.ModelArn))
			if modelID == "" {
				continue
			}
			if isGlobal {
				global[modelID] = profileID
			} else {
				regional[modelID] = profileID
			}
		}
	}
	return regional, global
}

// modelIDFromArn extracts the foundation-model id suffix from an ARN of
// the form "arn:aws:bedrock:<region>::foundation-model/<model-id>".
func modelIDFromArn(arn string) string {
	const marker = "foundation-model/"
	idx := strings.Index(arn, marker)
	if idx == -1 {
		return ""
	}
	return arn[idx+len(marker):]
}
