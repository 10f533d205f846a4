package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hotspot"

// Metrics holds the Prometheus counters, histograms, and gauges for the hotspot service.
type Metrics struct {
	// Load metrics.
	Loads               *prometheus.CounterVec // labels: source={live,sample}
	LoadDuration        prometheus.Histogram
	StaleLoadsDiscarded prometheus.Counter

	// Upstream metrics.
	UpstreamRequests    *prometheus.CounterVec   // labels: endpoint={hotspots,summary,insights}, outcome={success,error,invalid,rejected}
	UpstreamDuration    *prometheus.HistogramVec // labels: endpoint
	CircuitBreakerState prometheus.Gauge         // 0=closed, 1=half-open, 2=open

	// Interaction metrics.
	InsightsRequests     *prometheus.CounterVec // labels: outcome={live,fallback,deduplicated,stale}
	SelectionTransitions *prometheus.CounterVec // labels: source={map,table,reload}, kind={select,replace,clear}
	Renders              *prometheus.CounterVec // labels: result={rendered,placeholder}
	MarkersRendered      prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	// Outbound metrics.
	EventsPublished  *prometheus.CounterVec // labels: type={load,selection}, outcome={success,error}
	WebsocketClients prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Settled hotspot loads by data source.",
		}, []string{"source"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of a paired hotspot and summary load, including fallback.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		StaleLoadsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_loads_discarded_total",
			Help:      "Loads that settled after a newer load had started and were dropped.",
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"endpoint"}),
		CircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_circuit_state",
			Help:      "Upstream circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}),
		InsightsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insights_requests_total",
			Help:      "Insights requests by outcome.",
		}, []string{"outcome"}),
		SelectionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_transitions_total",
			Help:      "Selection state transitions by input source and kind.",
		}, []string{"source", "kind"}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "map_renders_total",
			Help:      "Map renders by result.",
		}, []string{"result"}),
		MarkersRendered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "map_markers",
			Help:      "Markers in the most recent map render.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when geocoding of unregistered areas is enabled, 0 otherwise.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Events handed to Kafka by type and outcome.",
		}, []string{"type", "outcome"}),
		WebsocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket viewers.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Loads,
		m.LoadDuration,
		m.StaleLoadsDiscarded,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.CircuitBreakerState,
		m.InsightsRequests,
		m.SelectionTransitions,
		m.Renders,
		m.MarkersRendered,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.EventsPublished,
		m.WebsocketClients,
	}
}
