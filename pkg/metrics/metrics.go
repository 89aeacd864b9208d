package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dogbot"

// Metrics records marketplace activity. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	ordersPlaced      prometheus.Counter
	deliveries        *prometheus.CounterVec
	assignments       *prometheus.CounterVec
	proposals         prometheus.Counter
	validationRejects *prometheus.CounterVec
	handlerDuration   *prometheus.HistogramVec
	sessionsSwept     prometheus.Counter
}

// New registers the collectors on reg. A nil reg yields a no-op recorder.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders created and published.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_deliveries_total",
			Help:      "Order cards sent to walkers by result.",
		}, []string{"result"}),
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignments_total",
			Help:      "Assignment attempts by result.",
		}, []string{"result"}),
		proposals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposals_submitted_total",
			Help:      "Proposals written by walkers.",
		}),
		validationRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_rejects_total",
			Help:      "Wizard inputs rejected by state.",
		}, []string{"state"}),
		handlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handler_duration_seconds",
			Help:      "Time spent handling one inbound update.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		sessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_swept_total",
			Help:      "Expired in-memory sessions removed.",
		}),
	}
	reg.MustRegister(
		m.ordersPlaced,
		m.deliveries,
		m.assignments,
		m.proposals,
		m.validationRejects,
		m.handlerDuration,
		m.sessionsSwept,
	)
	return m
}

func (m *Metrics) OrderPlaced() {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
}

func (m *Metrics) Delivery(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.deliveries.WithLabelValues(result).Inc()
}

// Assignment counts an attempt; result is "won", "conflict" or "error".
func (m *Metrics) Assignment(result string) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *Metrics) ProposalSubmitted() {
	if m == nil {
		return
	}
	m.proposals.Inc()
}

func (m *Metrics) ValidationReject(state string) {
	if m == nil {
		return
	}
	m.validationRejects.WithLabelValues(normalizeLabel(state)).Inc()
}

func (m *Metrics) ObserveHandler(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.handlerDuration.WithLabelValues(normalizeLabel(kind)).Observe(d.Seconds())
}

func (m *Metrics) SessionsSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sessionsSwept.Add(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
