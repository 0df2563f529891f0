package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	PaymentsInitiated   *prometheus.CounterVec
	PaymentsRecovered   *prometheus.CounterVec
	CurrencyResolutions *prometheus.CounterVec
	UnknownPlanIDs      *prometheus.CounterVec
	PendingSweepRuns    prometheus.Counter

	// Upstream metrics
	BackendRequestDuration *prometheus.HistogramVec
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		PaymentsInitiated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_initiated_total",
				Help: "Total number of payment sessions started",
			},
			[]string{"plan"},
		),
		PaymentsRecovered: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_recovered_total",
				Help: "Total number of pending payments settled by recovery",
			},
			[]string{"status"}, // completed, recovered
		),
		CurrencyResolutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "currency_resolutions_total",
				Help: "Total number of currency resolutions by source",
			},
			[]string{"source"}, // backend, cache, timezone, manual
		),
		UnknownPlanIDs: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unknown_plan_ids_total",
				Help: "Plan ids missing from the static plan table",
			},
			[]string{"plan"},
		),
		PendingSweepRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pending_sweep_runs_total",
			Help: "Total number of pending-order sweep runs",
		}),

		BackendRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payments_backend_request_duration_seconds",
				Help:    "Payments backend request duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"operation", "kind"},
		),
	}

	return m
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // route pattern, not the raw URL

			err := next(c)

			status := c.Response().Status
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)

			return err
		}
	}
}

// RecordPaymentInitiated increments the payment sessions counter
func (m *Metrics) RecordPaymentInitiated(planID string) {
	m.PaymentsInitiated.WithLabelValues(planID).Inc()
}

// RecordPaymentRecovered increments the recovered payments counter
func (m *Metrics) RecordPaymentRecovered(status string) {
	m.PaymentsRecovered.WithLabelValues(status).Inc()
}

// RecordCurrencyResolution increments the currency resolutions counter
func (m *Metrics) RecordCurrencyResolution(source string) {
	m.CurrencyResolutions.WithLabelValues(source).Inc()
}

// RecordUnknownPlan increments the unknown plan ids counter
func (m *Metrics) RecordUnknownPlan(planID string) {
	m.UnknownPlanIDs.WithLabelValues(planID).Inc()
}

// RecordPendingSweepRun increments the sweep runs counter
func (m *Metrics) RecordPendingSweepRun() {
	m.PendingSweepRuns.Inc()
}

// RecordBackendRequest records a payments backend request duration
func (m *Metrics) RecordBackendRequest(operation, kind string, duration time.Duration) {
	m.BackendRequestDuration.WithLabelValues(operation, kind).Observe(duration.Seconds())
}
