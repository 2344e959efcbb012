package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "perftrack_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Account lockout counter
	LockoutCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "perftrack_account_lockouts_total",
			Help: "Total number of accounts locked after repeated login failures",
		},
	)

	// Password reset counter
	PasswordResetCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "perftrack_password_resets_total",
			Help: "Total number of password reset requests",
		},
	)

	// User operation counter
	UserOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perftrack_user_operations_total",
			Help: "Total number of user administration operations",
		},
		[]string{"operation"}, // "create", "update", "deactivate", "anonymize", "delete", etc.
	)

	// Tenant operation counter
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perftrack_tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"},
	)

	// Project operation counter
	ProjectOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perftrack_project_operations_total",
			Help: "Total number of project operations",
		},
		[]string{"operation"},
	)

	// Indicator operation counter
	IndicatorOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perftrack_indicator_operations_total",
			Help: "Total number of performance indicator operations",
		},
		[]string{"operation"},
	)

	// Document operation counter
	DocumentOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perftrack_document_operations_total",
			Help: "Total number of document operations",
		},
		[]string{"operation"},
	)

	// Score recalculation counter
	ScoreRecalcCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perftrack_score_recalculations_total",
			Help: "Total number of project score recalculations",
		},
		[]string{"outcome"}, // "ok" or "failed"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perftrack_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perftrack_auth_errors_total",
			Help: "Total number of authentication and authorization errors",
		},
		[]string{"type"}, // "invalid_password", "account_locked", "permission_denied", etc.
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "perftrack_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "perftrack_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Active sessions
	ActiveSessionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "perftrack_active_sessions",
			Help: "Number of currently active sessions",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "perftrack_info",
			Help: "Information about the perftrack service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(LockoutCounter)
	prometheus.MustRegister(PasswordResetCounter)
	prometheus.MustRegister(UserOperationCounter)
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(ProjectOperationCounter)
	prometheus.MustRegister(IndicatorOperationCounter)
	prometheus.MustRegister(DocumentOperationCounter)
	prometheus.MustRegister(ScoreRecalcCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(ActiveSessionsGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordAuthError records an authentication or authorization error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordUserOperation records a user administration operation
func RecordUserOperation(operation string) {
	UserOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordTenantOperation records a tenant operation
func RecordTenantOperation(operation string) {
	TenantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordProjectOperation records a project operation
func RecordProjectOperation(operation string) {
	ProjectOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordIndicatorOperation records a performance indicator operation
func RecordIndicatorOperation(operation string) {
	IndicatorOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordDocumentOperation records a document operation
func RecordDocumentOperation(operation string) {
	DocumentOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordScoreRecalc records a project score recalculation outcome
func RecordScoreRecalc(outcome string) {
	ScoreRecalcCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// IncreaseActiveSessions increments the active sessions gauge
func IncreaseActiveSessions() {
	ActiveSessionsGauge.Inc()
}

// DecreaseActiveSessions decrements the active sessions gauge
func DecreaseActiveSessions() {
	ActiveSessionsGauge.Dec()
}
