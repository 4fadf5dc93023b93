package sentinel

import (
	"context"
	"time"

	"github.com/greenscope/greenscope-api/internal/cache"
	"github.com/greenscope/greenscope-api/internal/geo"
	"github.com/greenscope/greenscope-api/internal/ndvi"
)

// CachedCatalog wraps a catalog with a file-backed cache keyed on the full
// search parameters. Catalog responses for a fixed, fully past interval are
// stable, so cache hits never need invalidation; failures and empty results
// are not cached.
type CachedCatalog struct {
	inner ndvi.Catalog
	store *cache.FileCache[[]ndvi.Acquisition]
}

func NewCachedCatalog(inner ndvi.Catalog, dir string) *CachedCatalog {
	return &CachedCatalog{
		inner: inner,
		store: cache.NewFileCache[[]ndvi.Acquisition](dir),
	}
}

func (c *CachedCatalog) Search(ctx context.Context, fp geo.Footprint, iv ndvi.Interval, cloudCeiling float64, limit int) ([]ndvi.Acquisition, error) {
	key := c.store.GenerateKey(
		fp.MinLon, fp.MinLat, fp.MaxLon, fp.MaxLat,
		iv.Start.Format(time.DateOnly), iv.End.Format(time.DateOnly),
		cloudCeiling, limit,
	)
	if hit, ok := c.store.Get(key); ok {
		return hit, nil
	}

	results, err := c.inner.Search(ctx, fp, iv, cloudCeiling, limit)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		_ = c.store.Set(key, results)
	}
	return results, nil
}
