package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"

	"llmrouter/config"
)

// BedrockCaller implements Caller against AWS Bedrock's Converse API (not
// ConverseStream: spec.md's Non-goals exclude streaming-response handling
// beyond the retry points the engine already covers). Adapted from
// providers/bedrock/bedrock.go's Bedrock type, dropping the catalog/pricing
// responsibilities that now live in the catalog package and narrowing the
// provider surface down to the single Call method the retry engine drives.
type BedrockCaller struct {
	clientsByRegion map[string]*bedrockruntime.Client
	profile         string
	tuning          config.Config
}

// NewBedrockCaller constructs a caller with one bedrockruntime.Client per
// region in regions, each tuned from cfg's boto3-config-equivalent knobs
// (read/connect timeouts, pool size, SDK-level retry attempts — the SDK's
// own retrying is left at 0 by default so the retry engine owns all retry
// decisions; see config.Config.RetriesMaxAttempts).
func NewBedrockCaller(ctx context.Context, regions []string, profile string, cfg config.Config) (*BedrockCaller, error) {
	clients := make(map[string]*bedrockruntime.Client, len(regions))
	for _, region := range regions {
		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(region),
			awsconfig.WithHTTPClient(newTunedHTTPClient(cfg)),
		}
		if profile != "" {
			opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
		}
		if cfg.RetriesMaxAttempts > 0 {
			opts = append(opts, awsconfig.WithRetryMaxAttempts(cfg.RetriesMaxAttempts))
		} else {
			opts = append(opts, awsconfig.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config for region %s: %w", region, err)
		}
		clients[region] = bedrockruntime.NewFromConfig(awsCfg)
	}

	return &BedrockCaller{clientsByRegion: clients, profile: profile, tuning: cfg}, nil
}

// Call issues one Converse request against the client for region.
func (b *BedrockCaller) Call(ctx context.Context, region, modelID string, args Args) (Response, error) {
	client, ok := b.clientsByRegion[region]
	if !ok {
		return Response{}, fmt.Errorf("%w: no client configured for region %s", ErrModelNotFound, region)
	}

	input, err := buildConverseInput(modelID, args)
	if err != nil {
		return Response{}, fmt.Errorf("building converse request: %w", err)
	}

	if b.tuning.RequestTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, secondsToDuration(b.tuning.RequestTimeoutSeconds))
		defer cancel()
	}

	out, err := client.Converse(ctx, input)
	if err != nil {
		return Response{}, wrapCallError(err)
	}

	return fromConverseOutput(out)
}

// wrapCallError annotates raw AWS errors with the transport package's
// provider-agnostic sentinels, mirroring providers/bedrock/bedrock.go's
// classifyErr. The classify package performs the full taxonomy match
// directly against the smithy.APIError underneath; these sentinels exist
// for callers that only care about the coarse throttled/denied/not-found
// split without importing classify.
func wrapCallError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException":
			return fmt.Errorf("%w: %w", ErrThrottled, err)
		case "AccessDeniedException":
			return fmt.Errorf("%w: %w", ErrAccessDenied, err)
		case "ResourceNotFoundException", "ModelNotFoundException":
			return fmt.Errorf("%w: %w", ErrModelNotFound, err)
		}
	}
	return fmt.Errorf("bedrock converse: %w", err)
}

// newTunedHTTPClient applies cfg's boto3-config-equivalent knobs to the
// SDK's buildable HTTP client: connect timeout via the dialer, pool size
// via the transport's idle-conns-per-host, and an overall read timeout.
func newTunedHTTPClient(cfg config.Config) *awshttp.BuildableClient {
	client := awshttp.NewBuildableClient()
	if cfg.ConnectTimeoutSeconds > 0 {
		timeout := secondsToDuration(cfg.ConnectTimeoutSeconds)
		client = client.WithDialerOptions(func(d *net.Dialer) {
			d.Timeout = timeout
		})
	}
	if cfg.MaxPoolConnections > 0 {
		client = client.WithTransportOptions(func(tr *http.Transport) {
			tr.MaxIdleConnsPerHost = cfg.MaxPoolConnections
		})
	}
	if cfg.ReadTimeoutSeconds > 0 {
		client = client.WithTimeout(secondsToDuration(cfg.ReadTimeoutSeconds))
	}
	return client
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
