package domain

import (
	"context"
	"time"
)

// AddressService is the remote owner of address records.
type AddressService interface {
	// CreateAddress submits a new address and returns the raw response body.
	// The body's shape is not fixed; see AddressIDDecoders.
	CreateAddress(ctx context.Context, fields AddressFields) ([]byte, error)

	// ListAddresses returns every address known to the service.
	ListAddresses(ctx context.Context) ([]Address, error)

	// GetAddress returns one address, or ErrNotFound.
	GetAddress(ctx context.Context, id int64) (Address, error)
}

// GeographyService serves commune and region reference data.
type GeographyService interface {
	// ListCommunes and ListRegions return an empty slice, not an error, when the
	// service has no data.
	ListCommunes(ctx context.Context) ([]Commune, error)
	ListRegions(ctx context.Context) ([]Region, error)

	GetCommune(ctx context.Context, id int64) (Commune, error)
	GetRegion(ctx context.Context, id int64) (Region, error)
}

// IncidentService is the remote owner of incident records.
type IncidentService interface {
	// CreateIncident submits a new incident and returns the raw response body.
	CreateIncident(ctx context.Context, inc NewIncident) ([]byte, error)

	ListIncidents(ctx context.Context) ([]Incident, error)
}

// Event types published about the incident lifecycle.
const (
	EventIncidentCreated = "incident.created"
	EventAddressOrphaned = "address.orphaned"
)

// LifecycleEvent is emitted after the creation workflow finishes either way.
type LifecycleEvent struct {
	ID         string    `json:"event_id"`
	Type       string    `json:"event_type"`
	IncidentID int64     `json:"incident_id,omitempty"`
	AddressID  int64     `json:"address_id"`
	CommuneID  int64     `json:"commune_id"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher delivers lifecycle events. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event LifecycleEvent) error
}
