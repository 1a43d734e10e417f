package catalog

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrock/types"
)

type fakeRegionLister struct {
	foundation *bedrock.ListFoundationModelsOutput
	profiles   *bedrock.ListInferenceProfilesOutput
}

func (f *fakeRegionLister) ListFoundationModels(_ context.Context, _ *bedrock.ListFoundationModelsInput, _ ...func(*bedrock.Options)) (*bedrock.ListFoundationModelsOutput, error) {
	return f.foundation, nil
}

func (f *fakeRegionLister) ListInferenceProfiles(_ context.Context, _ *bedrock.ListInferenceProfilesInput, _ ...func(*bedrock.Options)) (*bedrock.ListInferenceProfilesOutput, error) {
	return f.profiles, nil
}

func TestFetchLiveMergesDirectAndCRISAccess(t *testing.T) {
	modelID := "anthropic.claude-3-5-sonnet-20241022-v2:0"
	fake := &fakeRegionLister{
		foundation: &bedrock.ListFoundationModelsOutput{
			ModelSummaries: []types.FoundationModelSummary{
				{
					ModelId:                    aws.String(modelID),
					ModelName:                  aws.String("Claude 3.5 Sonnet v2"),
					ProviderName:                aws.String("Anthropic"),
					OutputModalities:            []types.ModelModality{types.ModelModalityText},
					ResponseStreamingSupported:  aws.Bool(true),
					ModelLifecycle:              &types.FoundationModelLifecycle{Status: types.FoundationModelLifecycleStatusActive},
				},
			},
		},
		profiles: &bedrock.ListInferenceProfilesOutput{
			InferenceProfileSummaries: []types.InferenceProfileSummary{
				{
					InferenceProfileId: aws.String("us.anthropic.claude-3-5-sonnet-20241022-v2:0"),
					Models:             []types.InferenceProfileModel{{ModelArn: aws.String("arn:aws:bedrock:us-east-1::foundation-model/" + modelID)}},
				},
			},
		},
	}

	cat, err := FetchLive(context.Background(), func(string) RegionLister { return fake }, []string{"us-east-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry, ok := cat.Models["Claude 3.5 Sonnet v2"]
	if !ok {
		t.Fatalf("expected entry for Claude 3.5 Sonnet v2, got %v", cat.Models)
	}
	access, ok := entry.Regions["us-east-1"]
	if !ok {
		t.Fatalf("expected us-east-1 access info")
	}
	if !access.HasDirect || access.DirectModelID != modelID {
		t.Errorf("expected direct access to %s, got %+v", modelID, access)
	}
	if !access.HasRegionalProfile || access.RegionalProfileID != "us.anthropic.claude-3-5-sonnet-20241022-v2:0" {
		t.Errorf("expected regional profile access, got %+v", access)
	}
	if access.HasGlobalProfile {
		t.Errorf("expected no global profile access, got %+v", access)
	}
}

func TestFetchLiveSkipsInactiveModels(t *testing.T) {
	fake := &fakeRegionLister{
		foundation: &bedrock.ListFoundationModelsOutput{
			ModelSummaries: []types.FoundationModelSummary{
				{
					ModelId:          aws.String("anthropic.claude-legacy-v1:0"),
					ModelName:        aws.String("Claude Legacy"),
					OutputModalities: []types.ModelModality{types.ModelModalityText},
					ModelLifecycle:   &types.FoundationModelLifecycle{Status: types.FoundationModelLifecycleStatusLegacy},
				},
			},
		},
		profiles: &bedrock.ListInferenceProfilesOutput{},
	}

	cat, err := FetchLive(context.Background(), func(string) RegionLister { return fake }, []string{"us-east-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cat.Models) != 0 {
		t.Errorf("expected legacy model to be filtered out, got %v", cat.Models)
	}
}
