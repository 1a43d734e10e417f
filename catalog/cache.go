package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// cacheFileName is fixed: one cached catalog per CatalogDir, not per
// region-set, since a Catalog already spans every queried region.
const cacheFileName = "catalog.json"

// ErrWroteFallbackCache signals a successful write that landed on the
// fallback cache directory because the primary directory rejected it.
// Callers should log this as a warning, not treat it as failure.
var ErrWroteFallbackCache = errors.New("catalog: wrote cache to fallback directory")

// LoadFileCache reads a previously persisted Catalog, trying primaryDir
// first and falling back to fallbackDir if the primary location has no
// usable cache (spec.md §3.2: "file cache (primary, then fallback dir)").
// fallbackDir may be empty, in which case only primaryDir is consulted.
// Returns ok=false (no error) if neither location has a file, the file is
// stale by maxAge, or it was written by a package version with a
// different major.minor (patch differences are tolerated — see
// DESIGN.md Open Question decision). A malformed cache file is treated
// the same as a missing one: the live fetch path should recover, not
// fail hard on a corrupt cache.
func LoadFileCache(primaryDir, fallbackDir string, maxAge time.Duration) (*Catalog, bool) {
	if cat, ok := loadFileCacheFrom(primaryDir, maxAge); ok {
		return cat, true
	}
	if fallbackDir == "" {
		return nil, false
	}
	return loadFileCacheFrom(fallbackDir, maxAge)
}

func loadFileCacheFrom(dir string, maxAge time.Duration) (*Catalog, bool) {
	if dir == "" {
		return nil, false
	}

	path := filepath.Join(dir, cacheFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, false
	}

	if !versionCompatible(cat.Metadata.PackageVersion, PackageVersion) {
		return nil, false
	}
	if maxAge > 0 && time.Since(cat.Metadata.RetrievedAt) > maxAge {
		return nil, false
	}

	cat.Metadata.Source = SourceCacheFile
	return &cat, true
}

// SaveFileCache persists cat to primaryDir, creating it if necessary. If
// the primary write fails, it tries fallbackDir instead of raising — the
// caller (manager.Bootstrap/RefreshCatalog) logs a warning naming which
// location actually received the write. fallbackDir may be empty, in
// which case a primary-write failure is simply returned.
func SaveFileCache(primaryDir, fallbackDir string, cat *Catalog) error {
	primaryErr := saveFileCacheTo(primaryDir, cat)
	if primaryErr == nil || fallbackDir == "" {
		return primaryErr
	}
	if err := saveFileCacheTo(fallbackDir, cat); err != nil {
		return fmt.Errorf("catalog: primary cache write failed (%v), fallback also failed: %w", primaryErr, err)
	}
	return fmt.Errorf("%w: wrote to fallback cache dir %s instead", ErrWroteFallbackCache, fallbackDir)
}

func saveFileCacheTo(dir string, cat *Catalog) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("catalog: creating cache dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("catalog: marshaling catalog for cache: %w", err)
	}

	path := filepath.Join(dir, cacheFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("catalog: writing cache file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("catalog: renaming cache file into place: %w", err)
	}
	return nil
}

// versionCompatible compares two "major.minor.patch" strings at
// major.minor granularity only.
func versionCompatible(cached, current string) bool {
	if cached == "" {
		return false
	}
	return majorMinor(cached) == majorMinor(current)
}

func majorMinor(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return version
	}
	return parts[0] + "." + parts[1]
}

// MemoryCache is a process-local, TTL-bounded cache of the most recently
// loaded Catalog, consulted after the live fetch and the file cache have
// both come up empty and before the bundled artifact (spec.md §4.1's source priority: live -> file cache -> memory cache ->
// bundled). Adapted from providers/bedrock/pricing.go's file-cache
// freshness check, applied in-process instead of on disk. Owned by
// manager.Manager and shared across both the initial bootstrap load and
// later RefreshCatalog calls, so a live-fetch failure after a successful
// earlier load still has something fresher than the bundled artifact to
// fall back on.
type MemoryCache struct {
	catalog   *Catalog
	expiresAt time.Time
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Get returns the cached Catalog if one is set and not yet expired.
func (m *MemoryCache) Get() (*Catalog, bool) {
	if m == nil || m.catalog == nil {
		return nil, false
	}
	if time.Now().After(m.expiresAt) {
		return nil, false
	}
	cat := *m.catalog
	cat.Metadata.Source = SourceCacheMemory
	return &cat, true
}

// Set replaces the cached Catalog, valid for ttl from now.
func (m *MemoryCache) Set(cat *Catalog, ttl time.Duration) {
	m.catalog = cat
	m.expiresAt = time.Now().Add(ttl)
}
