// Package maintenance prunes on-disk artifacts this module accumulates
// over time: per-run attempt logs and a stale catalog cache file.
package maintenance

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CleanupOptions configures artifact pruning.
type CleanupOptions struct {
	// AttemptLogDir holds one attempts-<run-id>.jsonl file per process
	// run (see retry.NewAttemptLogger). Default: the router's configured
	// attempt log directory.
	AttemptLogDir string

	// CatalogDir holds the cached catalog.json (see catalog.SaveFileCache).
	CatalogDir string

	// MaxAge is how old a file must be before it is pruned.
	MaxAge time.Duration

	// DryRun when true reports what would be deleted without deleting it.
	DryRun bool
}

// CleanupResult reports what CleanupArtifacts did.
type CleanupResult struct {
	DeletedAttemptLogs     int
	DeletedCatalogCacheFiles int
	Errors                 []string
}

// DefaultCleanupOptions returns options pruning artifacts older than 30
// days.
func DefaultCleanupOptions(attemptLogDir, catalogDir string) CleanupOptions {
	return CleanupOptions{
		AttemptLogDir: attemptLogDir,
		CatalogDir:    catalogDir,
		MaxAge:        30 * 24 * time.Hour,
		DryRun:        false,
	}
}

// CleanupArtifacts deletes attempt-log files and a stale catalog cache
// file older than MaxAge (by ModTime). Missing directories are skipped
// gracefully; individual file errors are collected in Errors rather than
// aborting the sweep.
func CleanupArtifacts(opts CleanupOptions) (CleanupResult, error) {
	if opts.MaxAge == 0 {
		opts.MaxAge = 30 * 24 * time.Hour
	}

	result := CleanupResult{}
	cutoff := time.Now().Add(-opts.MaxAge)

	if opts.AttemptLogDir != "" {
		if err := cleanupAttemptLogs(opts.AttemptLogDir, cutoff, opts.DryRun, &result); err != nil {
			return result, fmt.Errorf("cleanup attempt logs: %w", err)
		}
	}

	if opts.CatalogDir != "" {
		if err := cleanupStaleCatalogCache(opts.CatalogDir, cutoff, opts.DryRun, &result); err != nil {
			return result, fmt.Errorf("cleanup catalog cache: %w", err)
		}
	}

	return result, nil
}

// cleanupAttemptLogs removes attempts-*.jsonl files older than cutoff.
func cleanupAttemptLogs(dir string, cutoff time.Time, dryRun bool, result *CleanupResult) error {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat attempt log directory: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "attempts-*.jsonl"))
	if err != nil {
		return fmt.Errorf("glob attempt log files: %w", err)
	}

	for _, path := range matches {
		if !strings.HasSuffix(path, ".jsonl") {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			result.Errors = append(result.Errors, fmt.Sprintf("stat %s: %v", path, err))
			continue
		}

		if !info.ModTime().Before(cutoff) {
			continue
		}

		if dryRun {
			result.DeletedAttemptLogs++
			continue
		}
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			result.Errors = append(result.Errors, fmt.Sprintf("remove %s: %v", path, err))
			continue
		}
		result.DeletedAttemptLogs++
	}

	return nil
}

// cleanupStaleCatalogCache removes catalog.json if it is older than
// cutoff. catalog.LoadFileCache already refuses a stale cache at read
// time; this additionally reclaims disk space for catalogs that have
// not been refreshed in a very long time (e.g. catalog_refresh_enabled
// was turned off).
func cleanupStaleCatalogCache(dir string, cutoff time.Time, dryRun bool, result *CleanupResult) error {
	path := filepath.Join(dir, "catalog.json")
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat catalog cache: %w", err)
	}

	if info.ModTime().Before(cutoff) {
		if dryRun {
			result.DeletedCatalogCacheFiles++
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			result.Errors = append(result.Errors, fmt.Sprintf("remove %s: %v", path, err))
			return nil
		}
		result.DeletedCatalogCacheFiles++
	}

	return nil
}
