package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Load(t *testing.T) {
	metrics := newTestMetrics()
	c := NewCatalog(chileGeography(), metrics, discardLogger())

	require.Error(t, c.CheckReadiness(context.Background()))
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.CheckReadiness(context.Background()))

	assert.Len(t, c.Communes(), 3)
	assert.Len(t, c.Regions(), 2)

	commune, ok := c.Commune(providenciaID)
	require.True(t, ok)
	assert.Equal(t, "Providencia", commune.Name)

	region, ok := c.Region(metropolitana)
	require.True(t, ok)
	assert.Equal(t, "RM", region.Code)

	first, ok := c.FirstCommune()
	require.True(t, ok)
	assert.Equal(t, santiagoID, first.ID)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CatalogLoaded), 0)
}

func TestCatalog_EmptyIsValid(t *testing.T) {
	c := NewCatalog(&fakeGeography{}, newTestMetrics(), discardLogger())

	require.NoError(t, c.Load(context.Background()))
	assert.True(t, c.Loaded())

	_, ok := c.FirstCommune()
	assert.False(t, ok)
	assert.Empty(t, c.Communes())
}

func TestCatalog_LoadFailure(t *testing.T) {
	c := NewCatalog(&fakeGeography{listErr: errors.New("connection refused")}, newTestMetrics(), discardLogger())

	err := c.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.False(t, c.Loaded())
}

func TestCatalog_CopiesAreIndependent(t *testing.T) {
	c := loadedCatalog(t, chileGeography())

	communes := c.Communes()
	communes[0] = domain.Commune{ID: 999}

	first, _ := c.FirstCommune()
	assert.Equal(t, santiagoID, first.ID)
}

func TestCatalog_EnsureLoadsOnce(t *testing.T) {
	geo := chileGeography()
	c := NewCatalog(geo, newTestMetrics(), discardLogger())

	require.NoError(t, c.Ensure(context.Background()))
	geo.communes = nil
	require.NoError(t, c.Ensure(context.Background()))

	assert.Len(t, c.Communes(), 3, "second Ensure does not reload")
}
