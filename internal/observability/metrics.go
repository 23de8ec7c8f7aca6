package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the map service.
type Metrics struct {
	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,transport,empty}
	GeocodeAPIDuration prometheus.Histogram
	LookupsInFlight    prometheus.Gauge
	ResolveDuration    prometheus.Histogram

	// Directory metrics.
	DirectoryRequests *prometheus.CounterVec // labels: outcome={success,error}

	// Map view metrics.
	ViewMarkers   prometheus.Histogram
	PublishErrors prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.GeocodeRequests,
		m.GeocodeAPIDuration,
		m.LookupsInFlight,
		m.ResolveDuration,
		m.DirectoryRequests,
		m.ViewMarkers,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orgmap",
			Name:      "geocode_requests_total",
			Help:      "Postcode lookups by outcome.",
		}, []string{"outcome"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "orgmap",
			Name:      "geocode_api_duration_seconds",
			Help:      "Postcode API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		LookupsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "orgmap",
			Name:      "geocode_lookups_in_flight",
			Help:      "Postcode lookups issued and not yet settled.",
		}),
		ResolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "orgmap",
			Name:      "resolve_duration_seconds",
			Help:      "Time for a whole batch of lookups to settle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		DirectoryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orgmap",
			Name:      "directory_requests_total",
			Help:      "Organisation directory requests by outcome.",
		}, []string{"outcome"}),
		ViewMarkers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "orgmap",
			Name:      "view_markers",
			Help:      "Number of markers per built map view.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orgmap",
			Name:      "view_publish_errors_total",
			Help:      "Map views that could not be published to Kafka.",
		}),
	}
}
