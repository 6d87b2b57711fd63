package domain

import "strings"

// Fallback strings substituted when a lookup cannot produce real data.
const (
	LocationUnavailable = "Ubicación no disponible"
	CommuneUnavailable  = "Comuna no disponible"
	RegionUnavailable   = "Región no disponible"
	RegionCodeUnknown   = "ND"

	// NoAddress is the address text of an incident that was never linked to an address.
	NoAddress = "Sin dirección"
)

// Address is a physical address owned by the address service.
type Address struct {
	ID           int64  `json:"idDireccion"`
	Street       string `json:"calle"`
	Number       string `json:"numero"`
	SubLocality  string `json:"villa,omitempty"`
	Complement   string `json:"complemento,omitempty"`
	CommuneID    int64  `json:"idComuna"`
	CoordinateID *int64 `json:"idCoordenada,omitempty"`
}

// AddressFields is the payload used to create an address. The service assigns the id.
type AddressFields struct {
	Street      string `json:"calle"`
	Number      string `json:"numero"`
	SubLocality string `json:"villa,omitempty"`
	Complement  string `json:"complemento,omitempty"`
	CommuneID   int64  `json:"idComuna"`
}

// AddressInput is the address as submitted from a form. CommuneID arrives as text
// and must parse as a positive integer before it becomes AddressFields.
type AddressInput struct {
	Street      string `json:"calle"`
	Number      string `json:"numero"`
	SubLocality string `json:"villa,omitempty"`
	Complement  string `json:"complemento,omitempty"`
	CommuneID   string `json:"idComuna"`
}

// Matches reports whether the address carries the same street, number and commune
// as the submitted fields. Street and number are compared trimmed and case-insensitively.
func (a Address) Matches(f AddressFields) bool {
	return a.CommuneID == f.CommuneID &&
		strings.EqualFold(strings.TrimSpace(a.Street), strings.TrimSpace(f.Street)) &&
		strings.EqualFold(strings.TrimSpace(a.Number), strings.TrimSpace(f.Number))
}

// Commune is reference data: a municipality inside a region.
type Commune struct {
	ID       int64  `json:"idComuna"`
	Name     string `json:"nombreComuna"`
	RegionID int64  `json:"idRegion"`
}

// Region is reference data: a top-level administrative region.
type Region struct {
	ID   int64  `json:"idRegion"`
	Name string `json:"nombreRegion"`
	Code string `json:"identificacionRegion"`
}

// StubCommune is substituted when a commune lookup fails. Its zero region id
// still drives a region lookup, which normally degrades as well.
func StubCommune() Commune {
	return Commune{Name: CommuneUnavailable}
}

// StubRegion is substituted when a region lookup fails.
func StubRegion() Region {
	return Region{Name: RegionUnavailable, Code: RegionCodeUnknown}
}
