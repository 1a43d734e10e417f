package manager

import (
	"context"
	"errors"
	"testing"

	"llmrouter/access"
	"llmrouter/catalog"
	"llmrouter/config"
	"llmrouter/parallel"
	"llmrouter/retry"
	"llmrouter/transport"
)

type fakeCaller struct {
	outcome map[string]error
}

func (c *fakeCaller) Call(_ context.Context, _ string, modelID string, _ transport.Args) (transport.Response, error) {
	if err, ok := c.outcome[modelID]; ok && err != nil {
		return transport.Response{}, err
	}
	return transport.Response{StopReason: "end_turn"}, nil
}

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Models: map[string]catalog.ModelEntry{
			"Claude 3.5 Sonnet": {
				CanonicalName: "Claude 3.5 Sonnet",
				ModelID:       "anthropic.claude-3-5-sonnet-20241022-v2:0",
				Regions: map[string]catalog.AccessInfo{
					"us-east-1": {Region: "us-east-1", HasDirect: true, DirectModelID: "anthropic.claude-3-5-sonnet-20241022-v2:0"},
				},
			},
		},
	}
}

func testManager(caller transport.Caller) *Manager {
	cat := testCatalog()
	cfg := config.DefaultConfig()
	cfg.Regions = []string{"us-east-1"}
	cfg.DefaultModel = "Claude 3.5 Sonnet"
	cfg.MaxConcurrentRequests = 2

	engine := retry.NewEngine(caller, retry.Config{MaxRetries: 1, BackoffMultiplier: 2})
	engine.AccessTracker = access.NewTracker()
	engine.CompatTracker = access.NewCompatibilityTracker()

	return &Manager{
		cfg:         cfg,
		cat:         cat,
		resolver:    catalog.NewResolver(cat),
		engine:      engine,
		distributor: parallel.NewDistributor(),
		executor:    parallel.NewExecutor(engine, parallel.ExecutorConfig{MaxConcurrentRequests: 2, FailureHandling: parallel.ContinueOnFailure}),
		fetchCatalog: func(context.Context) (*catalog.Catalog, error) {
			return testCatalog(), nil
		},
	}
}

func userMessage(text string) transport.Args {
	return transport.Args{Messages: []transport.Message{{Role: "user", Content: []transport.ContentBlock{{Type: "text", Text: text}}}}}
}

func TestResolveModelByAlias(t *testing.T) {
	m := testManager(&fakeCaller{outcome: map[string]error{}})
	res, err := m.ResolveModel("Claude3.5 Sonnet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.CanonicalName != "Claude 3.5 Sonnet" {
		t.Errorf("canonical name = %q", res.CanonicalName)
	}
}

func TestResolveModelNotFoundReturnsSuggestions(t *testing.T) {
	m := testManager(&fakeCaller{outcome: map[string]error{}})
	_, err := m.ResolveModel("completely unrelated name")
	var nfe *NameNotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NameNotFoundError, got %v", err)
	}
}

func TestConverseRejectsEmptyMessages(t *testing.T) {
	m := testManager(&fakeCaller{outcome: map[string]error{}})
	_, err := m.Converse(context.Background(), ConverseRequest{ModelName: "Claude 3.5 Sonnet"})
	var rve *RequestValidationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected RequestValidationError, got %v", err)
	}
}

func TestConverseSucceeds(t *testing.T) {
	m := testManager(&fakeCaller{outcome: map[string]error{}})
	result, err := m.Converse(context.Background(), ConverseRequest{ModelName: "Claude 3.5 Sonnet", Args: userMessage("hi")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	stats := m.GetAccessMethodStatistics()
	if stats.PerMethodCounts[access.MethodDirect] != 1 {
		t.Errorf("expected 1 direct call recorded, got %+v", stats)
	}
}

func TestConverseParallelRejectsDuplicateRequestIDs(t *testing.T) {
	m := testManager(&fakeCaller{outcome: map[string]error{}})
	requests := []BatchRequest{
		{RequestID: "r1", ModelName: "Claude 3.5 Sonnet", Args: userMessage("hi")},
		{RequestID: "r1", ModelName: "Claude 3.5 Sonnet", Args: userMessage("hi")},
	}
	_, err := m.ConverseParallel(context.Background(), requests, 1, parallel.StrategyRoundRobin)
	var rve *RequestValidationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected RequestValidationError, got %v", err)
	}
}

func TestConverseParallelAggregatesSuccess(t *testing.T) {
	m := testManager(&fakeCaller{outcome: map[string]error{}})
	requests := []BatchRequest{
		{RequestID: "r1", ModelName: "Claude 3.5 Sonnet", Args: userMessage("hi")},
		{RequestID: "r2", ModelName: "Claude 3.5 Sonnet", Args: userMessage("hi")},
	}
	resp, err := m.ConverseParallel(context.Background(), requests, 1, parallel.StrategyRoundRobin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success || len(resp.RequestResponses) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGetAvailableModelsAndRegions(t *testing.T) {
	m := testManager(&fakeCaller{outcome: map[string]error{}})
	if models := m.GetAvailableModels(); len(models) != 1 || models[0] != "Claude 3.5 Sonnet" {
		t.Errorf("models = %v", models)
	}
	if regions := m.GetAvailableRegions(); len(regions) != 1 || regions[0] != "us-east-1" {
		t.Errorf("regions = %v", regions)
	}
}

func TestValidateConfigurationReportsNoRegions(t *testing.T) {
	m := testManager(&fakeCaller{outcome: map[string]error{}})
	m.cfg.Regions = nil
	result := m.ValidateConfiguration(context.Background())
	if result.Valid {
		t.Errorf("expected invalid configuration with no regions")
	}
}

func TestValidateConfigurationHealthyByDefault(t *testing.T) {
	m := testManager(&fakeCaller{outcome: map[string]error{}})
	result := m.ValidateConfiguration(context.Background())
	if !result.Valid {
		t.Errorf("expected valid configuration, got errors: %v", result.Errors)
	}
	if result.ModelRegionCombinations != 1 {
		t.Errorf("expected 1 model/region combination, got %d", result.ModelRegionCombinations)
	}
}

func TestRefreshCatalogSwapsResolver(t *testing.T) {
	m := testManager(&fakeCaller{outcome: map[string]error{}})
	if err := m.RefreshCatalog(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.ResolveModel("Claude 3.5 Sonnet"); err != nil {
		t.Errorf("expected resolver still works after refresh: %v", err)
	}
}
