package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	"github.com/couchcryptid/incident-address-pipeline/internal/observability"
)

// AddressClient implements domain.AddressService over the address service REST API.
type AddressClient struct {
	*Client
}

// NewAddressClient creates a client for the address service.
func NewAddressClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *AddressClient {
	return &AddressClient{Client: NewClient("address", baseURL, timeout, metrics, logger)}
}

// CreateAddress posts the address and returns the body verbatim; its shape varies.
func (c *AddressClient) CreateAddress(ctx context.Context, fields domain.AddressFields) ([]byte, error) {
	body, err := c.do(ctx, http.MethodPost, "/addresses", "create", fields)
	if err != nil {
		return nil, err
	}
	if body == nil {
		body = []byte{}
	}
	return body, nil
}

// ListAddresses returns every address.
func (c *AddressClient) ListAddresses(ctx context.Context) ([]domain.Address, error) {
	return getList[domain.Address](ctx, c.Client, "/addresses", "list")
}

// GetAddress returns one address. Missing, empty and id-less answers are ErrNotFound.
func (c *AddressClient) GetAddress(ctx context.Context, id int64) (domain.Address, error) {
	var addr domain.Address
	ok, err := c.getJSON(ctx, fmt.Sprintf("/addresses/%d", id), "get", &addr)
	if err != nil {
		return domain.Address{}, err
	}
	if !ok || (addr.ID == 0 && addr.Street == "") {
		return domain.Address{}, domain.ErrNotFound
	}
	if addr.ID == 0 {
		addr.ID = id
	}
	return addr, nil
}

var _ domain.AddressService = (*AddressClient)(nil)
