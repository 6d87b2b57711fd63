package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	"github.com/couchcryptid/incident-address-pipeline/internal/observability"
)

// DefaultChunkSize bounds the number of address lookups in flight at once.
const DefaultChunkSize = 5

// AddressResolver resolves one address id for display.
type AddressResolver interface {
	ResolveAddress(ctx context.Context, addressID int64) (domain.DisplayAddress, error)
}

// Enricher resolves the addresses of many incidents. Incidents are processed in
// chunks: lookups inside a chunk run concurrently and all of them settle before
// the next chunk starts. A failed lookup never affects its siblings.
type Enricher struct {
	resolver  AddressResolver
	chunkSize int
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewEnricher creates an Enricher. A chunkSize below 1 uses DefaultChunkSize.
func NewEnricher(resolver AddressResolver, chunkSize int, metrics *observability.Metrics, logger *slog.Logger) *Enricher {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &Enricher{
		resolver:  resolver,
		chunkSize: chunkSize,
		metrics:   metrics,
		logger:    logger,
	}
}

// EnrichIncidents returns one entry per incident id. Incidents without an address
// map to nil without a lookup; every other entry is non-nil, with fallback
// values when the lookup failed.
func (e *Enricher) EnrichIncidents(ctx context.Context, incidents []domain.Incident) map[int64]*domain.DisplayAddress {
	out := make(map[int64]*domain.DisplayAddress, len(incidents))
	e.metrics.EnrichBatchSize.Observe(float64(len(incidents)))

	for start := 0; start < len(incidents); start += e.chunkSize {
		end := min(start+e.chunkSize, len(incidents))
		chunk := incidents[start:end]

		began := time.Now()
		results := e.enrichChunk(ctx, chunk)
		e.metrics.EnrichChunkDuration.Observe(time.Since(began).Seconds())

		for i, inc := range chunk {
			out[inc.ID] = results[i]
		}
	}
	return out
}

// enrichChunk runs the chunk's lookups concurrently and waits for all of them.
// The group is created without a shared context so one failure cancels nothing.
func (e *Enricher) enrichChunk(ctx context.Context, chunk []domain.Incident) []*domain.DisplayAddress {
	results := make([]*domain.DisplayAddress, len(chunk))

	var g errgroup.Group
	for i, inc := range chunk {
		if !inc.HasAddress() {
			continue
		}
		g.Go(func() error {
			results[i] = e.lookup(ctx, inc.ID, *inc.AddressID)
			return nil
		})
	}
	_ = g.Wait() // lookups never return errors

	return results
}

func (e *Enricher) lookup(ctx context.Context, incidentID, addressID int64) (display *domain.DisplayAddress) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("address lookup panicked, using fallback",
				"incident_id", incidentID,
				"address_id", addressID,
				"panic", fmt.Sprint(r),
			)
			fallback := domain.UnavailableAddress()
			display = &fallback
		}
	}()

	d, err := e.resolver.ResolveAddress(ctx, addressID)
	if err != nil {
		e.logger.Warn("address lookup failed, using fallback",
			"incident_id", incidentID,
			"address_id", addressID,
			"error", err,
		)
		d = domain.UnavailableAddress()
	}
	return &d
}

// EnrichedViews enriches incidents and returns them in input order with their
// address text. Segments that could not be looked up fall back to the commune
// and region names stored on the incident when it was created.
func (e *Enricher) EnrichedViews(ctx context.Context, incidents []domain.Incident) []domain.EnrichedIncident {
	displays := e.EnrichIncidents(ctx, incidents)

	views := make([]domain.EnrichedIncident, 0, len(incidents))
	for _, inc := range incidents {
		view := domain.EnrichedIncident{Incident: inc, AddressText: domain.NoAddress}
		if d := displays[inc.ID]; d != nil && inc.HasAddress() {
			resolved := applySnapshot(*d, inc)
			view.DisplayAddress = &resolved
			view.AddressText = resolved.FullText()
		}
		views = append(views, view)
	}
	return views
}

func applySnapshot(d domain.DisplayAddress, inc domain.Incident) domain.DisplayAddress {
	if d.Degraded.Commune && inc.CommuneName != "" {
		d.Commune = inc.CommuneName
		d.Degraded.Commune = false
	}
	if d.Degraded.Region && inc.RegionName != "" {
		d.Region = inc.RegionName
		d.Degraded.Region = false
	}
	return d
}
