package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	"github.com/couchcryptid/incident-address-pipeline/internal/observability"
)

// Fetcher turns an address id into a DisplayAddress. It has no cache of its own;
// commune and region reads go to the catalog first and to the geography service
// on a miss.
type Fetcher struct {
	addresses domain.AddressService
	geography domain.GeographyService
	catalog   *Catalog
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewFetcher creates a Fetcher. catalog may be nil.
func NewFetcher(addresses domain.AddressService, geography domain.GeographyService, catalog *Catalog, metrics *observability.Metrics, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		addresses: addresses,
		geography: geography,
		catalog:   catalog,
		metrics:   metrics,
		logger:    logger,
	}
}

// ResolveAddress never fails because downstream data is missing: a missing
// address, commune or region degrades to fallback values. The only error is an
// InvalidArgumentError for a non-positive id.
func (f *Fetcher) ResolveAddress(ctx context.Context, addressID int64) (domain.DisplayAddress, error) {
	if addressID <= 0 {
		return domain.DisplayAddress{}, &domain.InvalidArgumentError{Arg: "addressID", Reason: "must be positive"}
	}

	addr, err := f.addresses.GetAddress(ctx, addressID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			f.logger.Debug("address not found", "address_id", addressID)
		} else {
			f.logger.Warn("address lookup failed", "address_id", addressID, "error", err)
		}
		f.metrics.AddressLookups.WithLabelValues("missing").Inc()
		return domain.UnavailableAddress(), nil
	}

	commune, communeOK := f.commune(ctx, addressID, addr.CommuneID)
	region, regionOK := f.region(ctx, addressID, commune.RegionID)

	display := domain.NewDisplayAddress(addr, commune, region)
	display.Degraded.Commune = display.Degraded.Commune || !communeOK
	display.Degraded.Region = display.Degraded.Region || !regionOK

	if display.Degraded.Any() {
		f.metrics.AddressLookups.WithLabelValues("degraded").Inc()
	} else {
		f.metrics.AddressLookups.WithLabelValues("ok").Inc()
	}
	return display, nil
}

func (f *Fetcher) commune(ctx context.Context, addressID, communeID int64) (domain.Commune, bool) {
	if f.catalog != nil {
		if c, ok := f.catalog.Commune(communeID); ok {
			return c, true
		}
	}
	if communeID <= 0 {
		return domain.StubCommune(), false
	}
	c, err := f.geography.GetCommune(ctx, communeID)
	if err != nil {
		f.logger.Warn("commune lookup failed, using fallback",
			"address_id", addressID,
			"commune_id", communeID,
			"error", err,
		)
		return domain.StubCommune(), false
	}
	return c, true
}

// region skips the remote call for a zero region id, which is what a stub
// commune carries; such a lookup cannot succeed.
func (f *Fetcher) region(ctx context.Context, addressID, regionID int64) (domain.Region, bool) {
	if f.catalog != nil {
		if r, ok := f.catalog.Region(regionID); ok {
			return r, true
		}
	}
	if regionID <= 0 {
		return domain.StubRegion(), false
	}
	r, err := f.geography.GetRegion(ctx, regionID)
	if err != nil {
		f.logger.Warn("region lookup failed, using fallback",
			"address_id", addressID,
			"region_id", regionID,
			"error", err,
		)
		return domain.StubRegion(), false
	}
	return r, true
}
