// Package config loads user configuration for the routing core: AWS
// region/profile defaults, catalog cache tuning, and retry/parallel knobs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all router configuration values.
type Config struct {
	AWSRegion    string   `toml:"aws_region"`
	AWSProfile   string   `toml:"aws_profile"`
	DefaultModel string   `toml:"default_model"`
	Regions      []string `toml:"regions"`

	RouterDir           string `toml:"router_dir"`
	CatalogDir          string `toml:"catalog_dir"`
	CatalogFallbackDir  string `toml:"catalog_fallback_dir"`
	AttemptLogDir       string `toml:"attempt_log_dir"`

	// Catalog cache configuration.
	CatalogCacheTTLHours int  `toml:"catalog_cache_ttl_hours"`
	CatalogMaxAgeHours   int  `toml:"catalog_max_age_hours"`
	CatalogEnabled       bool `toml:"catalog_refresh_enabled"`

	// Model name patterns (doublestar globs) excluded from the resolvable
	// catalog, e.g. "*.claude-instant-*".
	ExcludeModelPatterns []string `toml:"exclude_model_patterns"`

	// Retry tuning — mirrors retry.Config but is TOML-addressable.
	MaxRetries         int     `toml:"max_retries"`
	BaseDelaySeconds   float64 `toml:"base_delay_seconds"`
	MaxDelaySeconds    float64 `toml:"max_delay_seconds"`
	BackoffMultiplier  float64 `toml:"backoff_multiplier"`
	ThrottleDelaySeconds float64 `toml:"throttle_delay_seconds"`
	EnableFeatureFallback bool  `toml:"enable_feature_fallback"`
	RetryStrategy      string  `toml:"retry_strategy"` // "model_first" | "region_first"

	// Parallel execution tuning.
	MaxConcurrentRequests  int     `toml:"max_concurrent_requests"`
	TargetRegionsPerRequest int    `toml:"target_regions_per_request"`
	RequestTimeoutSeconds  float64 `toml:"request_timeout_seconds"`
	FailureThreshold       float64 `toml:"failure_threshold"`
	LoadBalancingStrategy  string  `toml:"load_balancing_strategy"` // "round_robin" | "random" | "least_loaded"

	// Transport client tuning (boto3-config-equivalent knobs).
	ReadTimeoutSeconds    float64 `toml:"read_timeout_seconds"`
	ConnectTimeoutSeconds float64 `toml:"connect_timeout_seconds"`
	MaxPoolConnections    int     `toml:"max_pool_connections"`
	RetriesMaxAttempts    int     `toml:"retries_max_attempts"`

	// Project-local paths — not TOML-configurable. Resolved relative to CWD
	// until a project-root discovery mechanism exists.
	AttemptLogFile string        `toml:"-"`
	MaxCallTimeout time.Duration `toml:"-"`
}

// DefaultConfig returns a Config with all defaults populated.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	routerDir := filepath.Join(home, ".llmrouter")

	return Config{
		AWSRegion:    "us-east-1",
		AWSProfile:   "",
		DefaultModel: "Claude 3.5 Sonnet",
		Regions:      []string{"us-east-1", "us-west-2", "eu-central-1"},

		RouterDir:          routerDir,
		CatalogDir:         filepath.Join(routerDir, "cache", "catalog"),
		CatalogFallbackDir: filepath.Join(os.TempDir(), "llmrouter-catalog-cache"),
		AttemptLogDir:      filepath.Join(routerDir, "logs"),

		CatalogCacheTTLHours: 24,
		CatalogMaxAgeHours:   24 * 7,
		CatalogEnabled:       true,

		MaxRetries:            3,
		BaseDelaySeconds:      1.0,
		MaxDelaySeconds:       30.0,
		BackoffMultiplier:     2.0,
		ThrottleDelaySeconds:  5.0,
		EnableFeatureFallback: true,
		RetryStrategy:         "model_first",

		MaxConcurrentRequests:   5,
		TargetRegionsPerRequest: 1,
		RequestTimeoutSeconds:   60.0,
		FailureThreshold:        0.5,
		LoadBalancingStrategy:   "round_robin",

		ReadTimeoutSeconds:    60.0,
		ConnectTimeoutSeconds: 10.0,
		MaxPoolConnections:    10,
		RetriesMaxAttempts:    0, // 0 means: let retry.Engine own all retrying

		// AttemptLogFile documents the pattern — actual files are per-run: attempts-<run-id>.jsonl
		AttemptLogFile: filepath.Join(".llmrouter", "attempts-{run-id}.jsonl"),
		MaxCallTimeout: 5 * time.Minute,
	}
}

// ConfigFilePath returns the path to the config file inside RouterDir.
func (c Config) ConfigFilePath() string {
	return filepath.Join(c.RouterDir, "config.toml")
}

// Load loads configuration from the default location (~/.llmrouter/config.toml),
// falling back to defaults if the file does not exist.
// Warnings are returned for unrecognized TOML keys (likely typos).
func Load() (Config, []string, error) {
	defaults := DefaultConfig()
	return LoadFrom(defaults.ConfigFilePath(), defaults)
}

// LoadFrom loads configuration from the given path, overlaying TOML values
// onto the provided defaults. If the file does not exist, defaults are returned
// without error (first-run case). If the file exists but is malformed, an error
// is returned. Warnings are returned for unrecognized TOML keys.
func LoadFrom(path string, defaults Config) (Config, []string, error) {
	cfg := defaults

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil, nil
		}
		return Config{}, nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	// If router_dir was overridden but sub-dirs were not, re-derive them.
	// CatalogFallbackDir is not re-derived here: it deliberately lives
	// outside RouterDir (a system temp directory) so that a RouterDir
	// that has gone unwritable doesn't take its own fallback down with it.
	if meta.IsDefined("router_dir") {
		if !meta.IsDefined("catalog_dir") {
			cfg.CatalogDir = filepath.Join(cfg.RouterDir, "cache", "catalog")
		}
		if !meta.IsDefined("attempt_log_dir") {
			cfg.AttemptLogDir = filepath.Join(cfg.RouterDir, "logs")
		}
	}

	// Restore non-TOML fields from defaults.
	cfg.AttemptLogFile = defaults.AttemptLogFile
	cfg.MaxCallTimeout = defaults.MaxCallTimeout

	// Warn about unrecognized keys — likely typos.
	var warnings []string
	for _, key := range meta.Undecoded() {
		warnings = append(warnings, fmt.Sprintf("unknown config key: %s", key))
	}

	return cfg, warnings, nil
}

// EnsureDirs creates RouterDir, CatalogDir, and AttemptLogDir if they do not exist.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.RouterDir, c.CatalogDir, c.AttemptLogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}
