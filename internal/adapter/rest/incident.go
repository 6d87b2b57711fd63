package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	"github.com/couchcryptid/incident-address-pipeline/internal/observability"
)

// IncidentClient implements domain.IncidentService over the incident service REST API.
type IncidentClient struct {
	*Client
}

// NewIncidentClient creates a client for the incident service.
func NewIncidentClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *IncidentClient {
	return &IncidentClient{Client: NewClient("incident", baseURL, timeout, metrics, logger)}
}

// CreateIncident posts the incident and returns the body verbatim.
func (c *IncidentClient) CreateIncident(ctx context.Context, inc domain.NewIncident) ([]byte, error) {
	body, err := c.do(ctx, http.MethodPost, "/incidents", "create", inc)
	if err != nil {
		return nil, err
	}
	if body == nil {
		body = []byte{}
	}
	return body, nil
}

// ListIncidents returns every incident. Registration timestamps are accepted with
// or without a zone; zoneless values are read as UTC.
func (c *IncidentClient) ListIncidents(ctx context.Context) ([]domain.Incident, error) {
	wires, err := getList[incidentWire](ctx, c.Client, "/incidents", "list")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Incident, 0, len(wires))
	for _, w := range wires {
		inc := w.Incident
		inc.RegisteredAt = parseTimestamp(w.RegisteredAt)
		if w.RegisteredAt != "" && inc.RegisteredAt.IsZero() {
			c.logger.Warn("unparseable incident timestamp",
				"incident_id", inc.ID,
				"value", w.RegisteredAt,
			)
		}
		out = append(out, inc)
	}
	return out, nil
}

// incidentWire shadows the timestamp so it can be parsed leniently.
type incidentWire struct {
	domain.Incident
	RegisteredAt string `json:"fechaRegistro"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

var _ domain.IncidentService = (*IncidentClient)(nil)
