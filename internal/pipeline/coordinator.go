package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	"github.com/couchcryptid/incident-address-pipeline/internal/observability"
)

// CreationState is a step of the incident creation workflow.
type CreationState string

const (
	StateValidating       CreationState = "VALIDATING"
	StateCreatingAddress  CreationState = "CREATING_ADDRESS"
	StateCreatingIncident CreationState = "CREATING_INCIDENT"
	StateDone             CreationState = "DONE"
	StateFailed           CreationState = "FAILED"
)

var errIncidentIDMissing = errors.New("incident service answered without an incident id")

// AddressCreator creates an address and reports its id.
type AddressCreator interface {
	Resolve(ctx context.Context, fields domain.AddressFields) (Resolution, error)
}

// Coordinator runs the two-step "create address, then create incident" workflow.
// The two services share no transaction: when the incident step fails the
// address is left in place and reported as orphaned, never rolled back.
type Coordinator struct {
	addresses AddressCreator
	incidents domain.IncidentService
	catalog   *Catalog
	publisher domain.EventPublisher
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger

	onTransition func(CreationState)
}

// CoordinatorOption customizes a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithPublisher sends lifecycle events to p.
func WithPublisher(p domain.EventPublisher) CoordinatorOption {
	return func(c *Coordinator) { c.publisher = p }
}

// WithClock sets the clock used for registration timestamps.
func WithClock(clock clockwork.Clock) CoordinatorOption {
	return func(c *Coordinator) { c.clock = clock }
}

// WithTransitionHook calls fn on every state change.
func WithTransitionHook(fn func(CreationState)) CoordinatorOption {
	return func(c *Coordinator) { c.onTransition = fn }
}

// NewCoordinator creates a Coordinator. catalog supplies the commune and region
// names stored on the incident.
func NewCoordinator(addresses AddressCreator, incidents domain.IncidentService, catalog *Catalog, metrics *observability.Metrics, logger *slog.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		addresses: addresses,
		incidents: incidents,
		catalog:   catalog,
		clock:     clockwork.NewRealClock(),
		metrics:   metrics,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateIncidentWithAddress validates the input, creates the address, then
// creates the incident pointing at it. It returns the new incident id. The
// caller is responsible for refreshing any incident listing afterwards.
func (c *Coordinator) CreateIncidentWithAddress(ctx context.Context, inc domain.IncidentFields, addr domain.AddressInput) (int64, error) {
	c.transition(StateValidating)
	fields, err := domain.ValidateCreation(inc, addr)
	if err != nil {
		return 0, c.fail("validation", err)
	}

	c.transition(StateCreatingAddress)
	res, err := c.addresses.Resolve(ctx, fields)
	if err != nil {
		return 0, c.fail(addressOutcome(err), &domain.IncidentCreationError{Step: domain.StepAddress, Cause: err})
	}

	c.transition(StateCreatingIncident)
	payload := c.newIncident(inc, res)
	raw, err := c.incidents.CreateIncident(ctx, payload)
	if err != nil {
		c.logger.Error("incident creation failed after address was created",
			"address_id", res.ID,
			"error", err,
		)
		c.publish(ctx, domain.LifecycleEvent{
			Type:      domain.EventAddressOrphaned,
			AddressID: res.ID,
			CommuneID: res.Commune.ID,
			Reason:    err.Error(),
		})
		return 0, c.fail("incident", &domain.IncidentCreationError{
			Step:              domain.StepIncident,
			OrphanedAddressID: res.ID,
			Cause:             err,
		})
	}

	incidentID, _, ok := domain.DecodeID(raw, domain.IncidentIDDecoders())
	if !ok {
		return 0, c.fail("incident", &domain.IncidentCreationError{
			Step:  domain.StepIncident,
			Cause: fmt.Errorf("%w: %.200q", errIncidentIDMissing, raw),
		})
	}

	c.transition(StateDone)
	c.metrics.IncidentCreations.WithLabelValues("done").Inc()
	c.logger.Info("incident created",
		"incident_id", incidentID,
		"address_id", res.ID,
		"address_id_strategy", res.Strategy,
	)
	c.publish(ctx, domain.LifecycleEvent{
		Type:       domain.EventIncidentCreated,
		IncidentID: incidentID,
		AddressID:  res.ID,
		CommuneID:  res.Commune.ID,
	})
	return incidentID, nil
}

// addressOutcome labels an address-step failure by its cause.
func addressOutcome(err error) string {
	var cfgErr *domain.ConfigurationError
	var valErr *domain.ValidationError
	switch {
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &valErr):
		return "validation"
	default:
		return "address"
	}
}

func (c *Coordinator) newIncident(inc domain.IncidentFields, res Resolution) domain.NewIncident {
	state := inc.StateID
	if state == 0 {
		state = domain.StatePending
	}
	out := domain.NewIncident{
		Title:          inc.Title,
		Detail:         inc.Detail,
		RegisteredAt:   c.clock.Now().UTC(),
		TypeID:         inc.TypeID,
		StateID:        state,
		AddressID:      res.ID,
		AssignedUserID: inc.AssignedUserID,
		CommuneName:    res.Commune.Name,
	}
	if region, ok := c.catalog.Region(res.Commune.RegionID); ok {
		out.RegionName = region.Name
	}
	return out
}

func (c *Coordinator) transition(s CreationState) {
	c.logger.Debug("incident creation state", "state", string(s))
	if c.onTransition != nil {
		c.onTransition(s)
	}
}

func (c *Coordinator) fail(outcome string, err error) error {
	c.transition(StateFailed)
	c.metrics.IncidentCreations.WithLabelValues(outcome).Inc()
	return err
}

// publish is best effort; a delivery failure never fails the workflow.
func (c *Coordinator) publish(ctx context.Context, event domain.LifecycleEvent) {
	if c.publisher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.OccurredAt = c.clock.Now().UTC()

	if err := c.publisher.Publish(ctx, event); err != nil {
		c.metrics.EventsPublished.WithLabelValues(event.Type, "error").Inc()
		c.logger.Warn("publish lifecycle event failed",
			"event_type", event.Type,
			"address_id", event.AddressID,
			"error", err,
		)
		return
	}
	c.metrics.EventsPublished.WithLabelValues(event.Type, "ok").Inc()
}
