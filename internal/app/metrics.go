package app

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"calendar-availability/internal/availability"
)

// Result label values.
const (
	resultSuccess           = "success"
	resultValidation        = "validation_error"
	resultMissingTime       = "missing_time"
	resultSourceUnavailable = "source_unavailable"
	resultTimeout           = "timeout"
	resultError             = "error"
)

// Metrics records request and upstream fetch metrics.
type Metrics struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	fetches           *prometheus.CounterVec
	fetchDuration     prometheus.Histogram
	slots             prometheus.Histogram
}

// NewMetrics registers the service metrics on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "availability",
			Name:      "operations_total",
			Help:      "Availability operations by result",
		}, []string{"operation", "result"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "availability",
			Name:      "operation_duration_seconds",
			Help:      "Time spent serving availability operations",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "availability",
			Name:      "source_fetches_total",
			Help:      "Upstream event fetches by result",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "availability",
			Name:      "source_fetch_duration_seconds",
			Help:      "Time spent fetching events upstream",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		slots: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "availability",
			Name:      "empty_slots_per_request",
			Help:      "Number of empty slots returned per request",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	for _, c := range []prometheus.Collector{m.operations, m.operationDuration, m.fetches, m.fetchDuration, m.slots} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe records one finished operation. A nil receiver is a no-op.
func (m *Metrics) Observe(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, resultOf(err)).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveSlots(n int) {
	if m == nil {
		return
	}
	m.slots.Observe(float64(n))
}

func resultOf(err error) string {
	var (
		verr *availability.ValidationError
		merr *availability.MissingTimeError
		serr *availability.SourceUnavailableError
	)
	switch {
	case err == nil:
		return resultSuccess
	case errors.As(err, &verr):
		return resultValidation
	case errors.As(err, &merr):
		return resultMissingTime
	case errors.As(err, &serr):
		return resultSourceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return resultTimeout
	default:
		return resultError
	}
}

// InstrumentSource wraps src so every fetch is counted and timed.
func InstrumentSource(src availability.EventSource, m *Metrics) availability.EventSource {
	if m == nil {
		return src
	}
	return &instrumentedSource{next: src, m: m}
}

type instrumentedSource struct {
	next availability.EventSource
	m    *Metrics
}

func (s *instrumentedSource) FetchEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]availability.RawEvent, error) {
	start := time.Now()
	events, err := s.next.FetchEvents(ctx, calendarID, timeMin, timeMax, query)
	s.m.fetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.m.fetches.WithLabelValues(resultError).Inc()
		return nil, err
	}
	s.m.fetches.WithLabelValues(resultSuccess).Inc()
	return events, nil
}
