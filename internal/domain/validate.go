package domain

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Minimum lengths, counted in characters.
const (
	MinTitleLength  = 5
	MinDetailLength = 10
)

// ValidateCreation checks an incident and its address before any network call.
// All violations are collected into one ValidationError. On success the parsed
// AddressFields are returned.
func ValidateCreation(inc IncidentFields, addr AddressInput) (AddressFields, error) {
	fields := make(map[string]string)

	title := strings.TrimSpace(inc.Title)
	switch {
	case title == "":
		fields["titulo"] = "required"
	case utf8.RuneCountInString(title) < MinTitleLength:
		fields["titulo"] = "must be at least 5 characters"
	}

	detail := strings.TrimSpace(inc.Detail)
	switch {
	case detail == "":
		fields["detalle"] = "required"
	case utf8.RuneCountInString(detail) < MinDetailLength:
		fields["detalle"] = "must be at least 10 characters"
	}

	if inc.TypeID <= 0 {
		fields["idTipoIncidente"] = "required"
	}
	if inc.StateID < 0 {
		fields["idEstadoIncidente"] = "must not be negative"
	}
	if strings.TrimSpace(addr.Street) == "" {
		fields["calle"] = "required"
	}
	if strings.TrimSpace(addr.Number) == "" {
		fields["numero"] = "required"
	}

	communeID, ok := ParsePositiveID(addr.CommuneID)
	if !ok {
		fields["idComuna"] = "must be a positive integer"
	}

	if len(fields) > 0 {
		return AddressFields{}, &ValidationError{Fields: fields}
	}

	return AddressFields{
		Street:      strings.TrimSpace(addr.Street),
		Number:      strings.TrimSpace(addr.Number),
		SubLocality: strings.TrimSpace(addr.SubLocality),
		Complement:  strings.TrimSpace(addr.Complement),
		CommuneID:   communeID,
	}, nil
}

// ParsePositiveID parses a decimal id and rejects zero, negatives and garbage.
func ParsePositiveID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
