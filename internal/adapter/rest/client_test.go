package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	"github.com/couchcryptid/incident-address-pipeline/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestAddressClient_CreateAddress_ReturnsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/addresses", r.URL.Path)
		assert.Equal(t, contentTypeJSON, r.Header.Get(headerContentType))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Los Aromos", body["calle"])
		assert.Equal(t, "12", body["numero"])
		assert.EqualValues(t, 1, body["idComuna"])
		assert.NotContains(t, body, "villa", "empty optional fields are omitted")

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("Dirección creada con éxito. ID: 57"))
	}))
	defer srv.Close()

	c := NewAddressClient(srv.URL, 5*time.Second, testMetrics(), discardLogger())
	raw, err := c.CreateAddress(context.Background(), domain.AddressFields{Street: "Los Aromos", Number: "12", CommuneID: 1})
	require.NoError(t, err)
	assert.Equal(t, "Dirección creada con éxito. ID: 57", string(raw))
}

func TestAddressClient_CreateAddress_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewAddressClient(srv.URL, 5*time.Second, testMetrics(), discardLogger())
	raw, err := c.CreateAddress(context.Background(), domain.AddressFields{Street: "A", Number: "1", CommuneID: 1})
	require.NoError(t, err)
	assert.NotNil(t, raw)
	assert.Empty(t, raw)
}

func TestAddressClient_CreateAddress_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"db down"}`))
	}))
	defer srv.Close()

	c := NewAddressClient(srv.URL, 5*time.Second, testMetrics(), discardLogger())
	_, err := c.CreateAddress(context.Background(), domain.AddressFields{})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
	assert.Contains(t, err.Error(), "db down")
}

func TestAddressClient_GetAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/addresses/57":
			writeJSON(t, w, http.StatusOK, map[string]any{
				"idDireccion": 57, "calle": "Los Aromos", "numero": "12", "villa": "Villa Sur", "idComuna": 1,
			})
		case "/addresses/58":
			writeJSON(t, w, http.StatusOK, map[string]any{})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewAddressClient(srv.URL, 5*time.Second, testMetrics(), discardLogger())

	addr, err := c.GetAddress(context.Background(), 57)
	require.NoError(t, err)
	assert.Equal(t, domain.Address{ID: 57, Street: "Los Aromos", Number: "12", SubLocality: "Villa Sur", CommuneID: 1}, addr)

	_, err = c.GetAddress(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.GetAddress(context.Background(), 58)
	assert.ErrorIs(t, err, domain.ErrNotFound, "empty object is treated as missing")
}

func TestAddressClient_ListAddresses_Envelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"data": []map[string]any{
				{"idDireccion": 1, "calle": "A", "numero": "1", "idComuna": 1},
				{"idDireccion": 2, "calle": "B", "numero": "2", "idComuna": 1},
			},
		})
	}))
	defer srv.Close()

	c := NewAddressClient(srv.URL, 5*time.Second, testMetrics(), discardLogger())
	addrs, err := c.ListAddresses(context.Background())
	require.NoError(t, err)
	require.Len(t, addrs, 2)
	assert.Equal(t, int64(2), addrs[1].ID)
}

func TestGeographyClient_EmptyCatalogIsNotAnError(t *testing.T) {
	for _, tc := range []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"no content", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }},
		{"null", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("null")) }},
		{"empty array", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("[]")) }},
		{"empty body", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c := NewGeographyClient(srv.URL, 5*time.Second, testMetrics(), discardLogger())
			communes, err := c.ListCommunes(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, communes)
			assert.Empty(t, communes)

			regions, err := c.ListRegions(context.Background())
			require.NoError(t, err)
			assert.Empty(t, regions)
		})
	}
}

func TestGeographyClient_GetCommuneAndRegion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/communes/1":
			writeJSON(t, w, http.StatusOK, domain.Commune{ID: 1, Name: "Santiago", RegionID: 13})
		case "/regions/13":
			writeJSON(t, w, http.StatusOK, domain.Region{ID: 13, Name: "Metropolitana", Code: "RM"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewGeographyClient(srv.URL, 5*time.Second, testMetrics(), discardLogger())

	commune, err := c.GetCommune(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(13), commune.RegionID)

	region, err := c.GetRegion(context.Background(), 13)
	require.NoError(t, err)
	assert.Equal(t, "RM", region.Code)

	_, err = c.GetRegion(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIncidentClient_ListIncidents_LenientTimestamps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"idIncidente": 1, "titulo": "Incendio", "fechaRegistro": "2024-05-01T10:00:00Z", "idEstadoIncidente": 1, "idDireccion": 57},
			{"idIncidente": 2, "titulo": "Fuga", "fechaRegistro": "2024-05-01T10:00:00", "idEstadoIncidente": 2},
			{"idIncidente": 3, "titulo": "Choque", "fechaRegistro": "ayer", "idEstadoIncidente": 3}
		]`))
	}))
	defer srv.Close()

	c := NewIncidentClient(srv.URL, 5*time.Second, testMetrics(), discardLogger())
	incidents, err := c.ListIncidents(context.Background())
	require.NoError(t, err)
	require.Len(t, incidents, 3)

	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, want, incidents[0].RegisteredAt)
	assert.Equal(t, want, incidents[1].RegisteredAt)
	assert.True(t, incidents[2].RegisteredAt.IsZero())

	require.NotNil(t, incidents[0].AddressID)
	assert.Equal(t, int64(57), *incidents[0].AddressID)
	assert.Nil(t, incidents[1].AddressID)
	assert.Equal(t, "Incendio", incidents[0].Title)
}

func TestIncidentClient_CreateIncident(t *testing.T) {
	registered := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 57, body["idDireccion"])
		assert.Equal(t, "2024-05-01T10:00:00Z", body["fechaRegistro"])
		assert.Equal(t, "Santiago", body["nombreComuna"])
		writeJSON(t, w, http.StatusCreated, map[string]any{"idIncidente": 812})
	}))
	defer srv.Close()

	c := NewIncidentClient(srv.URL, 5*time.Second, testMetrics(), discardLogger())
	raw, err := c.CreateIncident(context.Background(), domain.NewIncident{
		Title: "Fuga de gas", AddressID: 57, RegisteredAt: registered, CommuneName: "Santiago",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"idIncidente": 812}`, string(raw))
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewAddressClient(srv.URL, 50*time.Millisecond, testMetrics(), discardLogger())
	_, err := c.GetAddress(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_TrimsBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/communes", r.URL.Path)
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := NewGeographyClient(srv.URL+"/", 5*time.Second, testMetrics(), discardLogger())
	_, err := c.ListCommunes(context.Background())
	require.NoError(t, err)
}
