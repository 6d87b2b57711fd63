package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "incident_pipeline"

// Metrics holds the Prometheus collectors for the enrichment and creation pipeline.
type Metrics struct {
	// Downstream service calls.
	ServiceRequests *prometheus.CounterVec   // labels: service, operation, outcome={ok,not_found,error}
	ServiceDuration *prometheus.HistogramVec // labels: service, operation

	// Enrichment.
	AddressLookups      *prometheus.CounterVec // labels: outcome={ok,degraded,missing}
	EnrichBatchSize     prometheus.Histogram
	EnrichChunkDuration prometheus.Histogram
	GeographyCache      *prometheus.CounterVec // labels: kind={commune,region}, result={hit,miss}

	// Creation.
	AddressResolutions *prometheus.CounterVec // labels: strategy={object,embedded,listing,failed}
	IncidentCreations  *prometheus.CounterVec // labels: outcome={done,validation,configuration,address,incident}

	// Reference data and events.
	CatalogLoaded   prometheus.Gauge
	EventsPublished *prometheus.CounterVec // labels: type, outcome={ok,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		ServiceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_requests_total",
			Help:      "Downstream service requests by service, operation and outcome.",
		}, []string{"service", "operation", "outcome"}),
		ServiceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "service_request_duration_seconds",
			Help:      "Downstream service request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"service", "operation"}),
		AddressLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "address_lookups_total",
			Help:      "Address display lookups by outcome.",
		}, []string{"outcome"}),
		EnrichBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enrich_batch_size",
			Help:      "Number of incidents per enrichment call.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		EnrichChunkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enrich_chunk_duration_seconds",
			Help:      "Time for one enrichment chunk to fully settle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		GeographyCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geography_cache_total",
			Help:      "Geography cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		AddressResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "address_resolutions_total",
			Help:      "Address id recoveries by the strategy that produced the id.",
		}, []string{"strategy"}),
		IncidentCreations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incident_creations_total",
			Help:      "Incident creation attempts by final outcome.",
		}, []string{"outcome"}),
		CatalogLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_loaded",
			Help:      "1 when commune and region reference data is loaded.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Lifecycle events published by type and outcome.",
		}, []string{"type", "outcome"}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ServiceRequests,
		m.ServiceDuration,
		m.AddressLookups,
		m.EnrichBatchSize,
		m.EnrichChunkDuration,
		m.GeographyCache,
		m.AddressResolutions,
		m.IncidentCreations,
		m.CatalogLoaded,
		m.EventsPublished,
	)
	return m
}

// NewUnregisteredMetrics creates Metrics that are collected but never exported,
// for one-shot tools that serve no /metrics endpoint.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
