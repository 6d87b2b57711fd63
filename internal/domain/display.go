package domain

import "strings"

// Degraded records which segments of a DisplayAddress came from fallback data.
type Degraded struct {
	Address bool `json:"address,omitempty"`
	Commune bool `json:"commune,omitempty"`
	Region  bool `json:"region,omitempty"`
}

// Any reports whether at least one segment is a fallback.
func (d Degraded) Any() bool {
	return d.Address || d.Commune || d.Region
}

// DisplayAddress is the flattened, display-ready form of an address. Building one
// never fails: missing segments carry the fallback strings and are tagged in Degraded.
type DisplayAddress struct {
	Street      string   `json:"street"`
	Number      string   `json:"number,omitempty"`
	SubLocality string   `json:"subLocality,omitempty"`
	Commune     string   `json:"commune"`
	Region      string   `json:"region"`
	RegionCode  string   `json:"regionCode"`
	Degraded    Degraded `json:"degraded"`
}

// UnavailableAddress is the fully degraded DisplayAddress used when the address
// itself cannot be found.
func UnavailableAddress() DisplayAddress {
	return DisplayAddress{
		Street:     LocationUnavailable,
		Commune:    CommuneUnavailable,
		Region:     RegionUnavailable,
		RegionCode: RegionCodeUnknown,
		Degraded:   Degraded{Address: true, Commune: true, Region: true},
	}
}

// NewDisplayAddress flattens an address with its (real or stub) commune and region.
func NewDisplayAddress(a Address, c Commune, r Region) DisplayAddress {
	d := DisplayAddress{
		Street:      strings.TrimSpace(a.Street),
		Number:      strings.TrimSpace(a.Number),
		SubLocality: strings.TrimSpace(a.SubLocality),
		Commune:     c.Name,
		Region:      r.Name,
		RegionCode:  r.Code,
	}
	if d.Street == "" {
		d.Street = LocationUnavailable
		d.Number = ""
		d.Degraded.Address = true
	}
	if d.Commune == "" {
		d.Commune = CommuneUnavailable
		d.Degraded.Commune = true
	}
	if d.Region == "" {
		d.Region = RegionUnavailable
		d.Degraded.Region = true
	}
	if d.RegionCode == "" {
		d.RegionCode = RegionCodeUnknown
	}
	return d
}

// StreetLine is "{street} {number}", or just the street when there is no number.
func (d DisplayAddress) StreetLine() string {
	return joinNonEmpty(" ", d.Street, d.Number)
}

// FullText renders "{street} {number}, {sublocality}, {commune}, {region}",
// skipping empty segments.
func (d DisplayAddress) FullText() string {
	text := joinNonEmpty(", ", d.StreetLine(), d.SubLocality, d.Commune, d.Region)
	if text == "" {
		return LocationUnavailable
	}
	return text
}

// ShortText renders "{street} {number}, {commune}".
func (d DisplayAddress) ShortText() string {
	text := joinNonEmpty(", ", d.StreetLine(), d.Commune)
	if text == "" {
		return LocationUnavailable
	}
	return text
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
