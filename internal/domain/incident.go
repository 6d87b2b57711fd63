package domain

import "time"

// Incident states as stored by the incident service.
const (
	StatePending    int64 = 1
	StateInProgress int64 = 2
	StateResolved   int64 = 3
	StateClosed     int64 = 4
)

// Incident is a reported incident owned by the incident service. AddressID is a
// plain foreign id into the address service; nothing enforces that it exists.
type Incident struct {
	ID             int64     `json:"idIncidente"`
	Title          string    `json:"titulo"`
	Detail         string    `json:"detalle"`
	RegisteredAt   time.Time `json:"fechaRegistro"`
	TypeID         int64     `json:"idTipoIncidente"`
	StateID        int64     `json:"idEstadoIncidente"`
	AddressID      *int64    `json:"idDireccion,omitempty"`
	AssignedUserID *int64    `json:"idUsuarioAsignado,omitempty"`

	// Denormalized at creation so listings can render without a join.
	CommuneName string `json:"nombreComuna,omitempty"`
	RegionName  string `json:"nombreRegion,omitempty"`
}

// HasAddress reports whether the incident references an address.
func (i Incident) HasAddress() bool {
	return i.AddressID != nil && *i.AddressID > 0
}

// IncidentFields is what a reporter submits about the incident itself.
type IncidentFields struct {
	Title          string `json:"titulo"`
	Detail         string `json:"detalle"`
	TypeID         int64  `json:"idTipoIncidente"`
	StateID        int64  `json:"idEstadoIncidente,omitempty"`
	AssignedUserID *int64 `json:"idUsuarioAsignado,omitempty"`
}

// NewIncident is the payload sent to the incident service.
type NewIncident struct {
	Title          string    `json:"titulo"`
	Detail         string    `json:"detalle"`
	RegisteredAt   time.Time `json:"fechaRegistro"`
	TypeID         int64     `json:"idTipoIncidente"`
	StateID        int64     `json:"idEstadoIncidente"`
	AddressID      int64     `json:"idDireccion"`
	AssignedUserID *int64    `json:"idUsuarioAsignado,omitempty"`
	CommuneName    string    `json:"nombreComuna,omitempty"`
	RegionName     string    `json:"nombreRegion,omitempty"`
}

// EnrichedIncident is an incident plus its resolved location. It is rebuilt on
// every listing and never persisted.
type EnrichedIncident struct {
	Incident
	AddressText    string          `json:"addressText"`
	DisplayAddress *DisplayAddress `json:"displayAddress"`
}
