package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Metrics holds all prometheus collectors for the workflow service.
type Metrics struct {
	TicketsCreated  prometheus.Counter
	Transitions     *prometheus.CounterVec
	Escalations     *prometheus.CounterVec
	Assignments     prometheus.Counter
	RequestDuration *prometheus.HistogramVec
	ErrorsCount     *prometheus.CounterVec
}

// NewMetrics registers and returns the collectors.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		TicketsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_created_total",
			Help:      "The total number of service tickets created",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_transitions_total",
			Help:      "The total number of ticket status transitions",
		}, []string{"from", "to"}),
		Escalations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_escalations_total",
			Help:      "The total number of ticket escalations",
		}, []string{"reason", "level"}),
		Assignments: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "technician_assignments_total",
			Help:      "The total number of technician assignments",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time taken to serve HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		ErrorsCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of request errors by code",
		}, []string{"code"}),
	}
}

// RecordRequest observes one served request.
func (m *Metrics) RecordRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordError increments the error counter for the given domain-error code.
func (m *Metrics) RecordError(code string) {
	if m == nil {
		return
	}
	m.ErrorsCount.WithLabelValues(code).Inc()
}

// RequestLogger logs each request and feeds the duration histogram.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)
		status := c.Response().StatusCode()

		metrics.RecordRequest(c.Method(), c.Route().Path, status, duration)
		logger.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", duration),
		)
		return err
	}
}
