package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	"github.com/couchcryptid/incident-address-pipeline/internal/observability"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// StatusError is returned for any non-2xx answer other than 404.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}

// Client performs JSON calls against one downstream service.
type Client struct {
	service    string
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a client for the service rooted at baseURL. Every request
// carries the given timeout.
func NewClient(service, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// do sends the request and returns the raw body of a 2xx answer. A 404 maps to
// domain.ErrNotFound. A 204 returns a nil body.
func (c *Client) do(ctx context.Context, method, path, operation string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", operation, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ServiceDuration.WithLabelValues(c.service, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		c.observe(operation, "error")
		return nil, fmt.Errorf("%s %s request: %w", c.service, operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.observe(operation, "error")
		return nil, fmt.Errorf("read %s %s response: %w", c.service, operation, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.observe(operation, "not_found")
		return nil, domain.ErrNotFound
	case resp.StatusCode == http.StatusNoContent:
		c.observe(operation, "ok")
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.observe(operation, "error")
		c.logger.Debug("service returned error status",
			"service", c.service,
			"operation", operation,
			"status", resp.StatusCode,
		)
		return nil, fmt.Errorf("%s %s: %w", c.service, operation,
			&StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))})
	}

	c.observe(operation, "ok")
	return body, nil
}

// getJSON decodes a 2xx body into v. Empty bodies leave v untouched and report
// false so callers can tell "no data" from "decoded".
func (c *Client) getJSON(ctx context.Context, path, operation string, v any) (bool, error) {
	body, err := c.do(ctx, http.MethodGet, path, operation, nil)
	if err != nil {
		return false, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return false, fmt.Errorf("decode %s %s response: %w", c.service, operation, err)
	}
	return true, nil
}

func (c *Client) observe(operation, outcome string) {
	c.metrics.ServiceRequests.WithLabelValues(c.service, operation, outcome).Inc()
}

// listEnvelopeKeys are the keys a service may wrap a list in.
var listEnvelopeKeys = []string{"data", "items", "results"}

// getList fetches a collection. A 204, an empty body or null is an empty list.
// Both a bare JSON array and an object wrapping one are accepted.
func getList[T any](ctx context.Context, c *Client, path, operation string) ([]T, error) {
	var raw json.RawMessage
	ok, err := c.getJSON(ctx, path, operation, &raw)
	if err != nil {
		return nil, err
	}
	items := []T{}
	if !ok {
		return items, nil
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode %s %s response: %w", c.service, operation, err)
		}
		raw = nil
		for _, k := range listEnvelopeKeys {
			if v, found := env[k]; found {
				raw = v
				break
			}
		}
		if raw == nil {
			return nil, fmt.Errorf("decode %s %s response: %w", c.service, operation, errNoList)
		}
	}

	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s %s response: %w", c.service, operation, err)
	}
	return items, nil
}

var errNoList = errors.New("object response without a list")
