package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func degradedView() domain.EnrichedIncident {
	addressID := int64(99)
	d := domain.UnavailableAddress()
	return domain.EnrichedIncident{
		Incident:       domain.Incident{ID: 7, AddressID: &addressID},
		AddressText:    d.FullText(),
		DisplayAddress: &d,
	}
}

func TestCheckAddresses_NotesGoToWriter(t *testing.T) {
	var buf bytes.Buffer

	p := checkAddresses(&buf, []domain.EnrichedIncident{degradedView(), {Incident: domain.Incident{ID: 8}}}, false)

	assert.True(t, p.passed())
	assert.Contains(t, buf.String(), "incident 7: address 99 degraded")
	assert.NotContains(t, buf.String(), "incident 8")
}

func TestCheckAddresses_StrictFails(t *testing.T) {
	var buf bytes.Buffer

	p := checkAddresses(&buf, []domain.EnrichedIncident{degradedView()}, true)

	require.False(t, p.passed())
	assert.Len(t, p.errors, 1)
	assert.Empty(t, buf.String())
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	ok := &phase{name: "Geography catalog"}
	bad := &phase{name: "Address resolution"}
	bad.errorf("incident %d broken", 3)

	assert.Equal(t, 0, report(&buf, []*phase{ok}))
	assert.Equal(t, 1, report(&buf, []*phase{ok, bad}))
	assert.Contains(t, buf.String(), "--- Address resolution ---")
	assert.Contains(t, buf.String(), "[1] incident 3 broken")
}

func TestRun_ListsIncidents(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /communes", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"idComuna": 1, "nombreComuna": "Santiago", "idRegion": 13}]`))
	})
	mux.HandleFunc("GET /regions", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"idRegion": 13, "nombreRegion": "Metropolitana de Santiago", "identificacionRegion": "RM"}]`))
	})
	mux.HandleFunc("GET /incidents", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"idIncidente": 1, "titulo": "Fuga de gas en edificio", "fechaRegistro": "2026-03-14T09:30:00Z", "idEstadoIncidente": 1, "idDireccion": 57},
			{"idIncidente": 2, "titulo": "Sin luz", "idEstadoIncidente": 1}
		]`))
	})
	mux.HandleFunc("GET /addresses/57", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"idDireccion": 57, "calle": "Los Aromos", "numero": "12", "idComuna": 1}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	var out, errOut bytes.Buffer
	code := run(context.Background(), options{
		addressURL:   srv.URL,
		geographyURL: srv.URL,
		incidentURL:  srv.URL,
		timeout:      time.Second,
		chunkSize:    5,
		strict:       true,
	}, &out, &errOut)

	assert.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "Los Aromos 12, Santiago, Metropolitana de Santiago")
	assert.Contains(t, out.String(), domain.NoAddress)
	assert.Contains(t, out.String(), "2026-03-14")
}
