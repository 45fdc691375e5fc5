package observability

import (
	"time"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	externalErrors    *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	pushesSent        *prometheus.CounterVec
	donationsSynced   *prometheus.CounterVec
	devicesRegistered prometheus.Counter
	requestsTotal     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adotaqui_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adotaqui_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adotaqui_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adotaqui_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		pushesSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adotaqui_pushes_total",
				Help: "Total push messages dispatched, by result.",
			},
			[]string{"result"},
		),
		donationsSynced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adotaqui_donations_synced_total",
				Help: "Total donation status reconciliations, by mapped status.",
			},
			[]string{"status"},
		),
		devicesRegistered: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "adotaqui_devices_registered_total",
				Help: "Total successful device registrations.",
			},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adotaqui_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrPush records a push dispatch outcome ("ok" or "failed").
func (m *Metrics) IncrPush(result string) {
	m.pushesSent.WithLabelValues(result).Inc()
}

// IncrDonationSync records a reconciliation outcome by mapped status.
func (m *Metrics) IncrDonationSync(status string) {
	m.donationsSynced.WithLabelValues(status).Inc()
}

// IncrDeviceRegistered counts a successful device registration.
func (m *Metrics) IncrDeviceRegistered() {
	m.devicesRegistered.Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetAppSnapshot returns a snapshot of application metrics suitable for the
// GET /v1/metrics/app endpoint.
func (m *Metrics) GetAppSnapshot() *domain.AppMetrics {
	totalRequests := getCounterValue(m.requestsTotal, "success") +
		getCounterValue(m.requestsTotal, "error")
	errorCount := getCounterValue(m.requestsTotal, "error")
	cacheHits := getCounterValue(m.cacheHits, "ong")
	cacheMisses := getCounterValue(m.cacheMisses, "ong")

	errorRate := float64(0)
	cacheHitRate := float64(0)
	if totalRequests > 0 {
		errorRate = errorCount / totalRequests
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	donationsSynced := getCounterValue(m.donationsSynced, domain.DonationPaid) +
		getCounterValue(m.donationsSynced, domain.DonationCancelled) +
		getCounterValue(m.donationsSynced, domain.DonationPending)

	return &domain.AppMetrics{
		TotalRequests:     int64(totalRequests),
		ErrorRate:         errorRate,
		PushesSent:        int64(getCounterValue(m.pushesSent, "ok")),
		PushesFailed:      int64(getCounterValue(m.pushesSent, "failed")),
		DonationsSynced:   int64(donationsSynced),
		DevicesRegistered: int64(getPlainCounterValue(m.devicesRegistered)),
		CacheHitRate:      cacheHitRate,
		Period:            "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getPlainCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
