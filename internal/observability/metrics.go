package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// refresh loop and its data sources.
type Metrics struct {
	RefreshCycles     prometheus.Counter
	RefresherRunning  prometheus.Gauge
	ActiveAlerts      prometheus.Gauge
	NotificationsSent prometheus.Counter

	// Per-source fetch metrics. source={weather,air_quality,alerts},
	// outcome={success,error}.
	FetchRequests *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec

	// Alert pipeline metrics.
	AlertsFetched  *prometheus.CounterVec // labels: provider
	ProviderErrors *prometheus.CounterVec // labels: provider, kind

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: method={reverse,search}, outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus
// registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RefreshCycles,
		m.RefresherRunning,
		m.ActiveAlerts,
		m.NotificationsSent,
		m.FetchRequests,
		m.FetchDuration,
		m.AlertsFetched,
		m.ProviderErrors,
		m.GeocodeRequests,
		m.GeocodeCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RefreshCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tempestd",
			Name:      "refresh_cycles_total",
			Help:      "Total refresh cycles triggered (timer or manual).",
		}),
		RefresherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tempestd",
			Name:      "refresher_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tempestd",
			Name:      "active_alerts",
			Help:      "Number of unexpired alerts in the current snapshot.",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tempestd",
			Name:      "notifications_sent_total",
			Help:      "Total alert notifications emitted through the sink.",
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tempestd",
			Name:      "fetch_requests_total",
			Help:      "Data fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tempestd",
			Name:      "fetch_duration_seconds",
			Help:      "Data fetch duration in seconds by source.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		AlertsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tempestd",
			Name:      "alerts_fetched_total",
			Help:      "Alerts returned by provider adapters after filtering.",
		}, []string{"provider"}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tempestd",
			Name:      "provider_errors_total",
			Help:      "Hard provider failures by provider and error kind.",
		}, []string{"provider", "kind"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tempestd",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tempestd",
			Name:      "geocode_cache_total",
			Help:      "Reverse-geocode cache lookups by result.",
		}, []string{"result"}),
	}
}
