package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	"github.com/couchcryptid/incident-address-pipeline/internal/observability"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeAddressService struct {
	mu sync.Mutex

	createResp []byte
	createErr  error
	created    []domain.AddressFields

	listing   []domain.Address
	listErr   error
	listCalls int

	addresses map[int64]domain.Address
	getErr    error
	getCalls  []int64
}

func (f *fakeAddressService) CreateAddress(_ context.Context, fields domain.AddressFields) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, fields)
	return f.createResp, f.createErr
}

func (f *fakeAddressService) ListAddresses(_ context.Context) ([]domain.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.listing, f.listErr
}

func (f *fakeAddressService) GetAddress(_ context.Context, id int64) (domain.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls = append(f.getCalls, id)
	if f.getErr != nil {
		return domain.Address{}, f.getErr
	}
	a, ok := f.addresses[id]
	if !ok {
		return domain.Address{}, domain.ErrNotFound
	}
	return a, nil
}

type fakeGeography struct {
	mu sync.Mutex

	communes   []domain.Commune
	regions    []domain.Region
	listErr    error
	communeErr error
	regionErr  error

	communeCalls []int64
	regionCalls  []int64
}

func (f *fakeGeography) ListCommunes(_ context.Context) ([]domain.Commune, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.communes, nil
}

func (f *fakeGeography) ListRegions(_ context.Context) ([]domain.Region, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.regions, nil
}

func (f *fakeGeography) GetCommune(_ context.Context, id int64) (domain.Commune, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.communeCalls = append(f.communeCalls, id)
	if f.communeErr != nil {
		return domain.Commune{}, f.communeErr
	}
	for _, c := range f.communes {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Commune{}, domain.ErrNotFound
}

func (f *fakeGeography) GetRegion(_ context.Context, id int64) (domain.Region, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regionCalls = append(f.regionCalls, id)
	if f.regionErr != nil {
		return domain.Region{}, f.regionErr
	}
	for _, r := range f.regions {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Region{}, domain.ErrNotFound
}

type fakeIncidentService struct {
	createResp []byte
	createErr  error
	created    []domain.NewIncident
}

func (f *fakeIncidentService) CreateIncident(_ context.Context, inc domain.NewIncident) ([]byte, error) {
	f.created = append(f.created, inc)
	return f.createResp, f.createErr
}

func (f *fakeIncidentService) ListIncidents(_ context.Context) ([]domain.Incident, error) {
	return nil, nil
}

type fakePublisher struct {
	events []domain.LifecycleEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event domain.LifecycleEvent) error {
	f.events = append(f.events, event)
	return f.err
}

// --- fixtures ---

const (
	santiagoID    int64 = 1
	providenciaID int64 = 2
	valparaisoID  int64 = 5
	metropolitana int64 = 13
	valparaisoReg int64 = 5
)

func chileGeography() *fakeGeography {
	return &fakeGeography{
		communes: []domain.Commune{
			{ID: santiagoID, Name: "Santiago", RegionID: metropolitana},
			{ID: providenciaID, Name: "Providencia", RegionID: metropolitana},
			{ID: valparaisoID, Name: "Valparaíso", RegionID: valparaisoReg},
		},
		regions: []domain.Region{
			{ID: metropolitana, Name: "Metropolitana de Santiago", Code: "RM"},
			{ID: valparaisoReg, Name: "Valparaíso", Code: "V"},
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func loadedCatalog(t *testing.T, geo domain.GeographyService) *Catalog {
	t.Helper()
	c := NewCatalog(geo, newTestMetrics(), discardLogger())
	require.NoError(t, c.Load(context.Background()))
	return c
}

func ptr[T any](v T) *T { return &v }
