package catalog

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awspricing "github.com/aws/aws-sdk-go-v2/service/pricing"
)

// productLister is the narrow slice of the AWS Pricing client this
// package depends on, so enrichment is testable without a live client —
// same narrowing pattern as core/provider.Provider.
type productLister interface {
	GetProducts(ctx context.Context, params *awspricing.GetProductsInput, optFns ...func(*awspricing.Options)) (*awspricing.GetProductsOutput, error)
}

var costClassServiceCodes = []string{"AmazonBedrockFoundationModels", "AmazonBedrock"}

var costTierRank = map[string]int{
	"standard": 0,
	"priority": 1,
	"flex":     2,
	"batch":    3,
	"cache":    4,
	"reserved": 5,
}

type costAttrs struct {
	Product struct {
		Attributes map[string]string `json:"attributes"`
	} `json:"product"`
}

// EnrichCostClass populates cat.Metadata.CostClass with a coarse
// per-model pricing tier label (the cheapest tier AWS Pricing reports
// for that model), keyed by model_id. This is purely informational:
// spec.md's Non-goal on cost accounting means CostClass is never read
// by the retry engine or the access-method selector — only surfaced to
// callers via Catalog.Metadata. Best-effort: a Pricing API error leaves
// the catalog's CostClass untouched rather than failing catalog load.
func EnrichCostClass(ctx context.Context, client productLister, cat *Catalog) {
	if client == nil || cat == nil {
		return
	}

	tiers := map[string]string{} // model_id -> cheapest tier seen

	for _, serviceCode := range costClassServiceCodes {
		var nextToken *string
		for {
			input := &awspricing.GetProductsInput{
				ServiceCode:   aws.String(serviceCode),
				FormatVersion: aws.String("aws_v1"),
				MaxResults:    aws.Int32(100),
				NextToken:     nextToken,
			}
			output, err := client.GetProducts(ctx, input)
			if err != nil {
				return
			}

			for _, raw := range output.PriceList {
				modelID, tier := costClassFromProduct(raw, cat)
				if modelID == "" {
					continue
				}
				if existing, ok := tiers[modelID]; !ok || costTierRank[tier] < costTierRank[existing] {
					tiers[modelID] = tier
				}
			}

			if output.NextToken == nil || *output.NextToken == "" {
				break
			}
			nextToken = output.NextToken
		}
	}

	if len(tiers) == 0 {
		return
	}
	if cat.Metadata.CostClass == nil {
		cat.Metadata.CostClass = map[string]string{}
	}
	for modelID, tier := range tiers {
		cat.Metadata.CostClass[modelID] = tier
	}
}

// costClassFromProduct matches a raw Pricing API product JSON blob
// against a catalog's known model_ids by substring, since the Pricing
// API's product attributes don't carry the Bedrock model_id directly.
func costClassFromProduct(raw string, cat *Catalog) (modelID, tier string) {
	blob := strings.ToLower(raw)
	for _, entry := range cat.Models {
		if entry.ModelID == "" {
			continue
		}
		if strings.Contains(blob, strings.ToLower(entry.ModelID)) {
			return entry.ModelID, detectCostTier(blob)
		}
	}
	return "", ""
}

func detectCostTier(blob string) string {
	switch {
	case strings.Contains(blob, "reserved"):
		return "reserved"
	case strings.Contains(blob, "cache"):
		return "cache"
	case strings.Contains(blob, "batch"):
		return "batch"
	case strings.Contains(blob, "priority"):
		return "priority"
	case strings.Contains(blob, "flex"):
		return "flex"
	default:
		return "standard"
	}
}
