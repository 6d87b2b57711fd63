package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	"github.com/couchcryptid/incident-address-pipeline/internal/observability"
)

// Catalog holds commune and region reference data. It is loaded once and read
// concurrently afterwards; nothing in the pipeline mutates it.
type Catalog struct {
	geography domain.GeographyService
	metrics   *observability.Metrics
	logger    *slog.Logger

	loadMu sync.Mutex // serializes Load

	mu          sync.RWMutex
	loaded      bool
	communes    []domain.Commune
	regions     []domain.Region
	communeByID map[int64]domain.Commune
	regionByID  map[int64]domain.Region
}

// NewCatalog creates an empty catalog backed by the geography service.
func NewCatalog(geography domain.GeographyService, metrics *observability.Metrics, logger *slog.Logger) *Catalog {
	return &Catalog{
		geography: geography,
		metrics:   metrics,
		logger:    logger,
	}
}

// Load fetches communes and regions in parallel and replaces the catalog.
// Empty lists are valid.
func (c *Catalog) Load(ctx context.Context) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	var (
		communes []domain.Commune
		regions  []domain.Region
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		communes, err = c.geography.ListCommunes(gctx)
		if err != nil {
			return fmt.Errorf("load communes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		regions, err = c.geography.ListRegions(gctx)
		if err != nil {
			return fmt.Errorf("load regions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	communeByID := make(map[int64]domain.Commune, len(communes))
	for _, cm := range communes {
		communeByID[cm.ID] = cm
	}
	regionByID := make(map[int64]domain.Region, len(regions))
	for _, r := range regions {
		regionByID[r.ID] = r
	}

	c.mu.Lock()
	c.communes = communes
	c.regions = regions
	c.communeByID = communeByID
	c.regionByID = regionByID
	c.loaded = true
	c.mu.Unlock()

	c.metrics.CatalogLoaded.Set(1)
	c.logger.Info("geography catalog loaded", "communes", len(communes), "regions", len(regions))
	return nil
}

// Ensure loads the catalog if no load has succeeded yet.
func (c *Catalog) Ensure(ctx context.Context) error {
	if c.Loaded() {
		return nil
	}
	return c.Load(ctx)
}

// Loaded reports whether a load has succeeded.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// CheckReadiness returns nil once the catalog has been loaded.
func (c *Catalog) CheckReadiness(_ context.Context) error {
	if !c.Loaded() {
		return errors.New("geography catalog has not been loaded yet")
	}
	return nil
}

// Communes returns a copy of the loaded communes in service order.
func (c *Catalog) Communes() []domain.Commune {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.communes)
}

// Regions returns a copy of the loaded regions in service order.
func (c *Catalog) Regions() []domain.Region {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.regions)
}

// Commune returns the loaded commune with the given id.
func (c *Catalog) Commune(id int64) (domain.Commune, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cm, ok := c.communeByID[id]
	return cm, ok
}

// Region returns the loaded region with the given id.
func (c *Catalog) Region(id int64) (domain.Region, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.regionByID[id]
	return r, ok
}

// FirstCommune returns the first commune in service order.
func (c *Catalog) FirstCommune() (domain.Commune, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.communes) == 0 {
		return domain.Commune{}, false
	}
	return c.communes[0], true
}
