package shape

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reoring/reshape"
)

// Error kinds used as the "kind" label of reshape_shape_errors_total.
const (
	KindValidation = "validation"
	KindConflict   = "conflict"
	KindNotFound   = "not_found"
	KindRequires   = "requires"
	KindInvalid    = "invalid"
	KindCanceled   = "canceled"
	KindInternal   = "internal"
)

// Metrics holds the Prometheus collectors of an Engine.
type Metrics struct {
	operations *prometheus.CounterVec
	errors     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reshape",
				Subsystem: "shape",
				Name:      "operations_total",
				Help:      "Total number of profile applications",
			},
			[]string{"profile", "outcome"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reshape",
				Subsystem: "shape",
				Name:      "errors_total",
				Help:      "Total number of failed profile applications by error kind",
			},
			[]string{"kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "reshape",
				Subsystem: "shape",
				Name:      "duration_seconds",
				Help:      "Profile application duration in seconds",
				Buckets: []float64{
					.00001, .00005, .0001, .0005,
					.001, .005, .01, .05, .1,
				},
			},
			[]string{"profile"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.errors, m.duration)
	}
	return m
}

func (m *Metrics) observe(profile string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.errors.WithLabelValues(ErrorKind(err)).Inc()
	}
	m.operations.WithLabelValues(profile, outcome).Inc()
	m.duration.WithLabelValues(profile).Observe(d.Seconds())
}

// ErrorKind classifies err for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, reshape.ErrValidation):
		return KindValidation
	case errors.Is(err, reshape.ErrConflict):
		return KindConflict
	case errors.Is(err, reshape.ErrNotFound):
		return KindNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	}
	if iss, ok := reshape.AsIssues(err); ok {
		for _, it := range iss {
			if it.Code == reshape.CodeRequires {
				return KindRequires
			}
		}
		return KindInvalid
	}
	return KindInternal
}
