package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds cmd/rdp-proxy's Prometheus collectors. All methods
// handle a nil receiver, so passing a nil *Metrics disables collection
// with zero overhead.
//
// Grounded on marmos91-dittofs's per-subsystem metrics.go files (struct
// of named collectors, NewMetrics(reg) registering them all at once, nil
// receiver methods).
type Metrics struct {
	ConnectionsTotal  *prometheus.CounterVec
	ConnectionsActive prometheus.Gauge
	DecodeErrorsTotal *prometheus.CounterVec
	SessionDuration   prometheus.Histogram
	GraphicsUpdates   *prometheus.CounterVec
	InputEventsTotal  prometheus.Counter
}

// NewMetrics creates and registers the proxy's metrics. Pass nil to
// build metrics without registering them (tests, or metrics disabled).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rdp_proxy_connections_total",
				Help: "Total inbound connections by outcome (accepted, rejected, errored)",
			},
			[]string{"outcome"},
		),
		ConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rdp_proxy_connections_active",
				Help: "Currently active RDP sessions",
			},
		),
		DecodeErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rdp_proxy_decode_errors_total",
				Help: "Total PDU decode errors by protocol stage",
			},
			[]string{"stage"},
		),
		SessionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rdp_proxy_session_duration_seconds",
				Help:    "Session duration from Accepted to Terminate",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		GraphicsUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rdp_proxy_graphics_updates_total",
				Help: "Total graphics updates processed by update code",
			},
			[]string{"code"},
		),
		InputEventsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rdp_proxy_input_events_total",
				Help: "Total client input events processed",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.ConnectionsTotal,
			m.ConnectionsActive,
			m.DecodeErrorsTotal,
			m.SessionDuration,
			m.GraphicsUpdates,
			m.InputEventsTotal,
		)
	}
	return m
}

func (m *Metrics) RecordConnection(outcome string) {
	if m == nil {
		return
	}
	m.ConnectionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.ConnectionsActive.Inc()
}

func (m *Metrics) SessionEnded(durationSeconds float64) {
	if m == nil {
		return
	}
	m.ConnectionsActive.Dec()
	m.SessionDuration.Observe(durationSeconds)
}

func (m *Metrics) RecordDecodeError(stage string) {
	if m == nil {
		return
	}
	m.DecodeErrorsTotal.WithLabelValues(stage).Inc()
}

func (m *Metrics) RecordGraphicsUpdate(code string) {
	if m == nil {
		return
	}
	m.GraphicsUpdates.WithLabelValues(code).Inc()
}

func (m *Metrics) RecordInputEvent() {
	if m == nil {
		return
	}
	m.InputEventsTotal.Inc()
}

// NullMetrics returns nil, which every Metrics method treats as a no-op.
func NullMetrics() *Metrics {
	return nil
}
