package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// bundledCatalogJSON is the last-resort fallback artifact baked into the
// binary at build time, used when no live fetch, file cache, or memory
// cache is available (spec.md §4.1's catalog source priority, final
// rung). Regenerated by whatever process refreshes the live catalog;
// kept deliberately small — just enough well-known models to keep name
// resolution and parallel dispatch functional offline.
//go:embed testdata/bundled_catalog.json
var bundledCatalogJSON []byte

// BundledCatalog parses and returns the embedded fallback catalog. The
// embedded JSON is a build-time artifact, so a parse failure here
// indicates a packaging bug, not a runtime condition callers should
// need to handle gracefully.
func BundledCatalog() (*Catalog, error) {
	var cat Catalog
	if err := json.Unmarshal(bundledCatalogJSON, &cat); err != nil {
		return nil, fmt.Errorf("catalog: parsing bundled catalog artifact: %w", err)
	}
	cat.Metadata.Source = SourceBundled
	return &cat, nil
}
