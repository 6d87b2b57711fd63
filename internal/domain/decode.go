package domain

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Create endpoints answer in several shapes: a bare success message with the id
// embedded in it, a message without any id, or an object carrying the id under
// one of a handful of key names. The decoders below each recognise one shape.

// IDDecoder extracts a positive id from one response shape.
type IDDecoder struct {
	Name   string
	Decode func(raw []byte) (int64, bool)
}

// Decoder strategy names, also used as metric labels.
const (
	StrategyObject   = "object"
	StrategyEmbedded = "embedded"
	StrategyListing  = "listing"
)

var (
	// AddressIDKeys are the keys the address service has used for the generated id.
	AddressIDKeys = []string{"idDireccion", "id", "direccionId", "addressId", "id_direccion", "ID"}

	// IncidentIDKeys are the keys the incident service has used for the generated id.
	IncidentIDKeys = []string{"idIncidente", "id", "incidenteId", "incidentId", "id_incidente", "ID"}

	// messageKeys hold free-text success messages inside object responses.
	messageKeys = []string{"message", "mensaje", "msg"}

	// envelopeKeys wrap the payload one level down, e.g. {"data": {"id": 3}}.
	envelopeKeys = []string{"data", "result", "direccion", "incidente"}

	integerRe = regexp.MustCompile(`\d+`)
)

// AddressIDDecoders is the ordered chain applied to address-create responses.
// The object decoder runs first so digits inside an object never reach the regex.
func AddressIDDecoders() []IDDecoder {
	return []IDDecoder{
		{Name: StrategyObject, Decode: ObjectIDDecoder(AddressIDKeys...)},
		{Name: StrategyEmbedded, Decode: DecodeEmbeddedID},
	}
}

// IncidentIDDecoders is the ordered chain applied to incident-create responses.
func IncidentIDDecoders() []IDDecoder {
	return []IDDecoder{
		{Name: StrategyObject, Decode: ObjectIDDecoder(IncidentIDKeys...)},
		{Name: StrategyEmbedded, Decode: DecodeEmbeddedID},
	}
}

// DecodeID applies decoders in order and returns the first positive id along with
// the name of the decoder that produced it.
func DecodeID(raw []byte, decoders []IDDecoder) (int64, string, bool) {
	for _, d := range decoders {
		if id, ok := d.Decode(raw); ok && id > 0 {
			return id, d.Name, true
		}
	}
	return 0, "", false
}

// ObjectIDDecoder reads the first present key of a JSON object. Values may be
// numbers or numeric strings. One level of envelope is searched as well.
func ObjectIDDecoder(keys ...string) func([]byte) (int64, bool) {
	return func(raw []byte) (int64, bool) {
		obj, ok := asObject(raw)
		if !ok {
			return 0, false
		}
		if id, ok := idFromObject(obj, keys); ok {
			return id, true
		}
		for _, env := range envelopeKeys {
			inner, ok := asObject(obj[env])
			if !ok {
				continue
			}
			if id, ok := idFromObject(inner, keys); ok {
				return id, true
			}
		}
		return 0, false
	}
}

// DecodeEmbeddedID extracts the first integer substring of a text response. Plain
// text, JSON strings and the message field of an object are all accepted.
func DecodeEmbeddedID(raw []byte) (int64, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0, false
	}

	var text string
	switch trimmed[0] {
	case '"':
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return 0, false
		}
	case '{':
		obj, ok := asObject(trimmed)
		if !ok {
			return 0, false
		}
		for _, k := range messageKeys {
			if s, ok := asString(obj[k]); ok {
				text = s
				break
			}
		}
	case '[':
		return 0, false
	default:
		text = string(trimmed)
	}

	return firstInteger(text)
}

func firstInteger(text string) (int64, bool) {
	m := integerRe.FindString(text)
	if m == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(m, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func idFromObject(obj map[string]json.RawMessage, keys []string) (int64, bool) {
	for _, k := range keys {
		v, present := obj[k]
		if !present {
			continue
		}
		if id, ok := asPositiveInt(v); ok {
			return id, true
		}
	}
	return 0, false
}

func asObject(raw []byte) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func asString(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

func asPositiveInt(raw json.RawMessage) (int64, bool) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		id, err := strconv.ParseInt(n.String(), 10, 64)
		if err == nil && id > 0 {
			return id, true
		}
		return 0, false
	}
	if s, ok := asString(raw); ok {
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err == nil && id > 0 {
			return id, true
		}
	}
	return 0, false
}
