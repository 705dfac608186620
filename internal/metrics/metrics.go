// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bitebuddy"

// OrderMetrics counts order lifecycle activity.
type OrderMetrics struct {
	transitions *prometheus.CounterVec
	otpOutcomes *prometheus.CounterVec
	otpLocks    prometheus.Counter
}

func NewOrderMetrics(reg prometheus.Registerer) (*OrderMetrics, error) {
	m := &OrderMetrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "order_transitions_total",
				Help:      "Order status transitions by source and target status",
			},
			[]string{"from", "to"},
		),
		otpOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "otp_verifications_total",
				Help:      "Delivery code submissions by outcome",
			},
			[]string{"outcome"},
		),
		otpLocks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "otp_locks_total",
				Help:      "Delivery codes locked after too many wrong submissions",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.transitions, m.otpOutcomes, m.otpLocks} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *OrderMetrics) RecordTransition(from, to string) {
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *OrderMetrics) RecordOTPOutcome(outcome string) {
	m.otpOutcomes.WithLabelValues(outcome).Inc()
}

func (m *OrderMetrics) RecordOTPLock() {
	m.otpLocks.Inc()
}

// HTTPMetrics counts and times handled requests. Route is the router
// pattern, never the raw path.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	if err := reg.Register(m.requests); err != nil {
		return nil, err
	}
	if err := reg.Register(m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *HTTPMetrics) Observe(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
