package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxRequestBytes bounds the body of a create request.
const maxRequestBytes = 1 << 20

// IncidentCreator runs the create-address-then-incident workflow.
type IncidentCreator interface {
	CreateIncidentWithAddress(ctx context.Context, inc domain.IncidentFields, addr domain.AddressInput) (int64, error)
}

// IncidentLister loads the raw incident listing.
type IncidentLister interface {
	ListIncidents(ctx context.Context) ([]domain.Incident, error)
}

// IncidentEnricher attaches display addresses to incidents.
type IncidentEnricher interface {
	EnrichedViews(ctx context.Context, incidents []domain.Incident) []domain.EnrichedIncident
}

// AddressResolver resolves one address for display.
type AddressResolver interface {
	ResolveAddress(ctx context.Context, addressID int64) (domain.DisplayAddress, error)
}

// Deps are the application services the API routes call.
type Deps struct {
	Creator   IncidentCreator
	Incidents IncidentLister
	Enricher  IncidentEnricher
	Addresses AddressResolver
	Ready     sharedobs.ReadinessChecker
}

// Server exposes the incident API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /api routes and /healthz, /readyz,
// and /metrics.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/incidents", s.handleListIncidents)
	mux.HandleFunc("POST /api/incidents", s.handleCreateIncident)
	mux.HandleFunc("GET /api/addresses/{id}", s.handleGetAddress)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	incidents, err := s.deps.Incidents.ListIncidents(r.Context())
	if err != nil {
		s.logger.Error("list incidents failed", "error", err)
		writeError(w, http.StatusBadGateway, "incident service unavailable")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, s.deps.Enricher.EnrichedViews(r.Context(), incidents))
}

// createRequest is the body of POST /api/incidents. The commune id is accepted
// as a JSON number or string, as forms submit it as text.
type createRequest struct {
	Incident domain.IncidentFields `json:"incident"`
	Address  struct {
		Street      string          `json:"calle"`
		Number      string          `json:"numero"`
		SubLocality string          `json:"villa"`
		Complement  string          `json:"complemento"`
		CommuneID   json.RawMessage `json:"idComuna"`
	} `json:"address"`
}

func (req createRequest) addressInput() domain.AddressInput {
	return domain.AddressInput{
		Street:      req.Address.Street,
		Number:      req.Address.Number,
		SubLocality: req.Address.SubLocality,
		Complement:  req.Address.Complement,
		CommuneID:   strings.Trim(string(req.Address.CommuneID), `"`),
	}
}

func (s *Server) handleCreateIncident(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := s.deps.Creator.CreateIncidentWithAddress(r.Context(), req.Incident, req.addressInput())
	if err != nil {
		s.writeCreateError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) writeCreateError(w http.ResponseWriter, err error) {
	var (
		valErr    *domain.ValidationError
		cfgErr    *domain.ConfigurationError
		createErr *domain.IncidentCreationError
	)
	switch {
	case errors.As(err, &valErr):
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": valErr.Fields,
		})
	case errors.As(err, &cfgErr):
		s.logger.Error("incident creation misconfigured", "error", err)
		writeError(w, http.StatusServiceUnavailable, cfgErr.Error())
	case errors.As(err, &createErr):
		body := map[string]any{
			"error": createErr.Error(),
			"step":  createErr.Step,
		}
		if createErr.OrphanedAddressID > 0 {
			body["orphanedAddressId"] = createErr.OrphanedAddressID
		}
		sharedobs.WriteJSON(w, http.StatusBadGateway, body)
	default:
		s.logger.Error("incident creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// addressResponse adds the rendered texts to a DisplayAddress.
type addressResponse struct {
	domain.DisplayAddress
	Text      string `json:"text"`
	ShortText string `json:"shortText"`
}

func (s *Server) handleGetAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := domain.ParsePositiveID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "address id must be a positive integer")
		return
	}

	d, err := s.deps.Addresses.ResolveAddress(r.Context(), id)
	if err != nil {
		var argErr *domain.InvalidArgumentError
		if errors.As(err, &argErr) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("resolve address failed", "address_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, addressResponse{
		DisplayAddress: d,
		Text:           d.FullText(),
		ShortText:      d.ShortText(),
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
