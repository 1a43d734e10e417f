package manager

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/google/uuid"

	"llmrouter/catalog"
	"llmrouter/config"
	"llmrouter/parallel"
	"llmrouter/retry"
	"llmrouter/transport"
)

// Bootstrap creates and wires a Manager from an already-loaded
// configuration: ensure its directories exist, assemble
// the catalog (live -> file cache -> memory cache -> bundled), build the
// transport adapter, and wire the retry engine and parallel executor.
// Each phase is a separate function for testability, following
// app/bootstrap.go's phased-construction pattern.
func Bootstrap(ctx context.Context, cfg config.Config) (*Manager, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("manager: ensuring directories: %w", err)
	}

	memCache := catalog.NewMemoryCache()
	cat := assembleCatalog(ctx, cfg, memCache)
	cat = catalog.ApplyExclusions(cat, cfg.ExcludeModelPatterns)

	caller, err := transport.NewBedrockCaller(ctx, cat.Regions(), cfg.AWSProfile, cfg)
	if err != nil {
		return nil, fmt.Errorf("manager: initializing transport: %w", err)
	}

	var logger *retry.AttemptLogger
	if cfg.AttemptLogDir != "" {
		runID := uuid.New().String()
		l, err := retry.NewAttemptLogger(runID, cfg.AttemptLogDir)
		if err != nil {
			log.Printf("llmrouter: warning: attempt log init failed: %v", err)
		} else {
			logger = l
		}
	}

	engine := retry.NewEngine(caller, retryConfigFrom(cfg))
	engine.Logger = logger

	m := &Manager{
		cfg:         cfg,
		cat:         cat,
		resolver:    catalog.NewResolver(cat),
		engine:      engine,
		distributor: parallel.NewDistributor(),
		executor: parallel.NewExecutor(engine, parallel.ExecutorConfig{
			MaxConcurrentRequests: cfg.MaxConcurrentRequests,
			RequestTimeout:        secondsToDuration(cfg.RequestTimeoutSeconds),
			FailureHandling:       parallel.ContinueOnFailure,
			FailureThreshold:      cfg.FailureThreshold,
		}),
		memCache: memCache,
		fetchCatalog: func(ctx context.Context) (*catalog.Catalog, error) {
			return assembleCatalog(ctx, cfg, memCache), nil
		},
		authCheck: func(ctx context.Context) error {
			_, err := awsconfig.LoadDefaultConfig(ctx, awsProfileOpt(cfg.AWSProfile)...)
			return err
		},
	}

	return m, nil
}

// retryConfigFrom maps the TOML-addressable config knobs onto
// retry.Config.
func retryConfigFrom(cfg config.Config) retry.Config {
	return retry.Config{
		MaxRetries:            cfg.MaxRetries,
		BaseDelay:             secondsToDuration(cfg.BaseDelaySeconds),
		MaxDelay:              secondsToDuration(cfg.MaxDelaySeconds),
		BackoffMultiplier:     cfg.BackoffMultiplier,
		EnableFeatureFallback: cfg.EnableFeatureFallback,
		ThrottleDelay:         secondsToDuration(cfg.ThrottleDelaySeconds),
		RetryStrategy:         retry.Strategy(cfg.RetryStrategy),
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// assembleCatalog assembles a Catalog following spec.md §3.2's source
// priority: live fetch, then file cache (primary dir, then fallback
// dir), then the process-local memory cache, then the bundled artifact.
// Used identically by Bootstrap's initial load and by the fetchCatalog
// closure RefreshCatalog drives, so a live-AWS outage degrades a refresh
// the same way it degrades startup instead of failing the call outright.
// mem is updated on every live fetch or file-cache hit, so a later
// outage that also misses the file cache still has a freshly-seen
// catalog to fall back on before reaching for the bundled artifact.
func assembleCatalog(ctx context.Context, cfg config.Config, mem *catalog.MemoryCache) *catalog.Catalog {
	memTTL := time.Duration(cfg.CatalogCacheTTLHours) * time.Hour

	if cfg.CatalogEnabled {
		if cat, err := fetchLiveCatalog(ctx, cfg); err == nil {
			if err := catalog.SaveFileCache(cfg.CatalogDir, cfg.CatalogFallbackDir, cat); err != nil {
				if errors.Is(err, catalog.ErrWroteFallbackCache) {
					log.Printf("llmrouter: warning: %v", err)
				} else {
					log.Printf("llmrouter: warning: caching catalog failed: %v", err)
				}
			}
			mem.Set(cat, memTTL)
			return cat
		} else {
			log.Printf("llmrouter: warning: live catalog fetch failed, falling back: %v", err)
		}
	}

	maxAge := time.Duration(cfg.CatalogMaxAgeHours) * time.Hour
	if cat, ok := catalog.LoadFileCache(cfg.CatalogDir, cfg.CatalogFallbackDir, maxAge); ok {
		mem.Set(cat, memTTL)
		return cat
	}

	if cat, ok := mem.Get(); ok {
		log.Printf("llmrouter: warning: live fetch and file cache both unavailable, using in-memory catalog")
		return cat
	}

	cat, err := catalog.BundledCatalog()
	if err != nil {
		log.Printf("llmrouter: warning: bundled catalog unavailable: %v", err)
		return &catalog.Catalog{Models: map[string]catalog.ModelEntry{}}
	}
	return cat
}

func fetchLiveCatalog(ctx context.Context, cfg config.Config) (*catalog.Catalog, error) {
	if len(cfg.Regions) == 0 {
		return nil, fmt.Errorf("manager: no regions configured for live catalog fetch")
	}

	clients := make(map[string]*bedrock.Client, len(cfg.Regions))
	for _, region := range cfg.Regions {
		opts := append(awsProfileOpt(cfg.AWSProfile), awsconfig.WithRegion(region))
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config for %s: %w", region, err)
		}
		clients[region] = bedrock.NewFromConfig(awsCfg)
	}

	return catalog.FetchLive(ctx, func(region string) catalog.RegionLister {
		return clients[region]
	}, cfg.Regions)
}

func awsProfileOpt(profile string) []func(*awsconfig.LoadOptions) error {
	if profile == "" {
		return nil
	}
	return []func(*awsconfig.LoadOptions) error{awsconfig.WithSharedConfigProfile(profile)}
}
