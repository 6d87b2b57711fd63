package rest

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	"github.com/couchcryptid/incident-address-pipeline/internal/observability"
)

// CachedGeography wraps a GeographyService with LRU caches for single-record
// reads. Communes and regions are reference data, so entries never expire.
// List calls are passed through.
type CachedGeography struct {
	inner    domain.GeographyService
	communes *lru.Cache[int64, domain.Commune]
	regions  *lru.Cache[int64, domain.Region]
	metrics  *observability.Metrics
}

// NewCachedGeography creates a cache decorator holding up to maxEntries of each kind.
func NewCachedGeography(inner domain.GeographyService, maxEntries int, metrics *observability.Metrics) (*CachedGeography, error) {
	communes, err := lru.New[int64, domain.Commune](maxEntries)
	if err != nil {
		return nil, err
	}
	regions, err := lru.New[int64, domain.Region](maxEntries)
	if err != nil {
		return nil, err
	}
	return &CachedGeography{
		inner:    inner,
		communes: communes,
		regions:  regions,
		metrics:  metrics,
	}, nil
}

func (c *CachedGeography) ListCommunes(ctx context.Context) ([]domain.Commune, error) {
	return c.inner.ListCommunes(ctx)
}

func (c *CachedGeography) ListRegions(ctx context.Context) ([]domain.Region, error) {
	return c.inner.ListRegions(ctx)
}

func (c *CachedGeography) GetCommune(ctx context.Context, id int64) (domain.Commune, error) {
	if commune, ok := c.communes.Get(id); ok {
		c.metrics.GeographyCache.WithLabelValues("commune", "hit").Inc()
		return commune, nil
	}
	c.metrics.GeographyCache.WithLabelValues("commune", "miss").Inc()

	commune, err := c.inner.GetCommune(ctx, id)
	if err != nil {
		// Failures are not cached so the next listing tries again.
		return commune, err
	}
	c.communes.Add(id, commune)
	return commune, nil
}

func (c *CachedGeography) GetRegion(ctx context.Context, id int64) (domain.Region, error) {
	if region, ok := c.regions.Get(id); ok {
		c.metrics.GeographyCache.WithLabelValues("region", "hit").Inc()
		return region, nil
	}
	c.metrics.GeographyCache.WithLabelValues("region", "miss").Inc()

	region, err := c.inner.GetRegion(ctx, id)
	if err != nil {
		return region, err
	}
	c.regions.Add(id, region)
	return region, nil
}

var _ domain.GeographyService = (*CachedGeography)(nil)
