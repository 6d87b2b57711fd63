package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	"github.com/couchcryptid/incident-address-pipeline/internal/observability"
)

var errNoAddressID = errors.New("no address id in create response or matching listing entry")

// Resolution describes a created address.
type Resolution struct {
	ID       int64
	Commune  domain.Commune // the commune actually submitted, after correction
	Strategy string         // decoder that produced the id
}

// Resolver creates addresses and recovers the id the address service assigned.
type Resolver struct {
	addresses domain.AddressService
	catalog   *Catalog
	decoders  []domain.IDDecoder
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewResolver creates a Resolver that validates communes against catalog.
func NewResolver(addresses domain.AddressService, catalog *Catalog, metrics *observability.Metrics, logger *slog.Logger) *Resolver {
	return &Resolver{
		addresses: addresses,
		catalog:   catalog,
		decoders:  domain.AddressIDDecoders(),
		metrics:   metrics,
		logger:    logger,
	}
}

// CreateAddress creates the address and returns its positive id.
func (r *Resolver) CreateAddress(ctx context.Context, fields domain.AddressFields) (int64, error) {
	res, err := r.Resolve(ctx, fields)
	if err != nil {
		return 0, err
	}
	return res.ID, nil
}

// Resolve creates the address and reports how its id was recovered. An unknown
// commune is replaced by the first catalog commune; an empty catalog is a
// ConfigurationError. The returned id is always positive.
func (r *Resolver) Resolve(ctx context.Context, fields domain.AddressFields) (Resolution, error) {
	if fields.CommuneID <= 0 {
		return Resolution{}, &domain.ValidationError{Fields: map[string]string{"idComuna": "required"}}
	}

	commune, err := r.checkCommune(ctx, &fields)
	if err != nil {
		return Resolution{}, err
	}

	raw, err := r.addresses.CreateAddress(ctx, fields)
	if err != nil {
		r.metrics.AddressResolutions.WithLabelValues("failed").Inc()
		return Resolution{}, &domain.AddressResolutionError{Cause: err}
	}

	if id, strategy, ok := domain.DecodeID(raw, r.decoders); ok {
		r.metrics.AddressResolutions.WithLabelValues(strategy).Inc()
		return Resolution{ID: id, Commune: commune, Strategy: strategy}, nil
	}

	r.logger.Info("address id not in create response, searching listing",
		"street", fields.Street,
		"number", fields.Number,
		"commune_id", fields.CommuneID,
	)
	id, err := r.findCreated(ctx, fields)
	if err != nil {
		r.metrics.AddressResolutions.WithLabelValues("failed").Inc()
		return Resolution{}, &domain.AddressResolutionError{Raw: raw, Cause: err}
	}
	r.metrics.AddressResolutions.WithLabelValues(domain.StrategyListing).Inc()
	return Resolution{ID: id, Commune: commune, Strategy: domain.StrategyListing}, nil
}

// checkCommune makes sure fields.CommuneID names a catalog commune, substituting
// the first one when it does not.
func (r *Resolver) checkCommune(ctx context.Context, fields *domain.AddressFields) (domain.Commune, error) {
	if err := r.catalog.Ensure(ctx); err != nil {
		return domain.Commune{}, &domain.ConfigurationError{Reason: fmt.Sprintf("geography catalog unavailable: %v", err)}
	}
	if commune, ok := r.catalog.Commune(fields.CommuneID); ok {
		return commune, nil
	}

	first, ok := r.catalog.FirstCommune()
	if !ok {
		return domain.Commune{}, &domain.ConfigurationError{Reason: "no communes available"}
	}
	r.logger.Warn("commune not in catalog, using first available",
		"requested_commune_id", fields.CommuneID,
		"substituted_commune_id", first.ID,
		"substituted_commune", first.Name,
	)
	fields.CommuneID = first.ID
	return first, nil
}

// findCreated returns the newest listed address matching the submitted fields.
func (r *Resolver) findCreated(ctx context.Context, fields domain.AddressFields) (int64, error) {
	all, err := r.addresses.ListAddresses(ctx)
	if err != nil {
		return 0, fmt.Errorf("recover id from listing: %w", err)
	}

	var newest int64
	for _, a := range all {
		if a.ID > newest && a.Matches(fields) {
			newest = a.ID
		}
	}
	if newest <= 0 {
		return 0, errNoAddressID
	}
	return newest, nil
}
