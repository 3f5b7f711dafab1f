package metrics

import (
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const outcomeOK = "ok"

// OperationMetrics records catalog and cart service operations.
type OperationMetrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewOperationMetrics registers the operation metrics on the provided registerer.
// A nil registerer yields a recorder that drops every observation.
func NewOperationMetrics(reg prometheus.Registerer, service string) *OperationMetrics {
	if reg == nil {
		return &OperationMetrics{}
	}
	labels := prometheus.Labels{"service": normalizeLabel(service)}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "bookstore_operation_duration_seconds",
		Help:        "Duration of service operations in seconds.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: labels,
	}, []string{"operation"})
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "bookstore_operations_total",
		Help:        "Service operations by outcome.",
		ConstLabels: labels,
	}, []string{"operation", "outcome"})
	reg.MustRegister(duration, total)
	return &OperationMetrics{
		duration: duration,
		total:    total,
	}
}

// Observe records one finished operation. The outcome label is "ok" or the
// lower-cased error code.
func (m *OperationMetrics) Observe(operation string, started time.Time, err error) {
	if m == nil || m.total == nil {
		return
	}
	op := normalizeLabel(operation)
	m.duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
	m.total.WithLabelValues(op, Outcome(err)).Inc()
}

// IncOutcome counts an operation under an explicit outcome, e.g. "created"
// versus "incremented" for a cart add.
func (m *OperationMetrics) IncOutcome(operation, outcome string) {
	if m == nil || m.total == nil {
		return
	}
	m.total.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// Outcome maps err to a bounded label value.
func Outcome(err error) string {
	if err == nil {
		return outcomeOK
	}
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return strings.ToLower(string(pkgerrors.CodeInternal))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
