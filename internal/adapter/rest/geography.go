package rest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	"github.com/couchcryptid/incident-address-pipeline/internal/observability"
)

// GeographyClient implements domain.GeographyService over the reference data API.
type GeographyClient struct {
	*Client
}

// NewGeographyClient creates a client for the commune/region reference service.
func NewGeographyClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *GeographyClient {
	return &GeographyClient{Client: NewClient("geography", baseURL, timeout, metrics, logger)}
}

// ListCommunes returns all communes. A 204 is an empty catalog, not an error.
func (c *GeographyClient) ListCommunes(ctx context.Context) ([]domain.Commune, error) {
	return getList[domain.Commune](ctx, c.Client, "/communes", "list_communes")
}

// ListRegions returns all regions. A 204 is an empty catalog, not an error.
func (c *GeographyClient) ListRegions(ctx context.Context) ([]domain.Region, error) {
	return getList[domain.Region](ctx, c.Client, "/regions", "list_regions")
}

func (c *GeographyClient) GetCommune(ctx context.Context, id int64) (domain.Commune, error) {
	var commune domain.Commune
	ok, err := c.getJSON(ctx, fmt.Sprintf("/communes/%d", id), "get_commune", &commune)
	if err != nil {
		return domain.Commune{}, err
	}
	if !ok || commune.Name == "" {
		return domain.Commune{}, domain.ErrNotFound
	}
	return commune, nil
}

func (c *GeographyClient) GetRegion(ctx context.Context, id int64) (domain.Region, error) {
	var region domain.Region
	ok, err := c.getJSON(ctx, fmt.Sprintf("/regions/%d", id), "get_region", &region)
	if err != nil {
		return domain.Region{}, err
	}
	if !ok || region.Name == "" {
		return domain.Region{}, domain.ErrNotFound
	}
	return region, nil
}

var _ domain.GeographyService = (*GeographyClient)(nil)
