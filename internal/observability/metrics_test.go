package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("writing metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestMetricsRecordConnection(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordConnection("accepted")
	m.RecordConnection("accepted")
	m.RecordConnection("rejected")

	if got := counterValue(t, m.ConnectionsTotal.WithLabelValues("accepted")); got != 2 {
		t.Errorf("accepted count = %v, want 2", got)
	}
	if got := counterValue(t, m.ConnectionsTotal.WithLabelValues("rejected")); got != 1 {
		t.Errorf("rejected count = %v, want 1", got)
	}
}

func TestMetricsSessionLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.SessionStarted()
	m.SessionStarted()
	m.SessionEnded(12.5)

	var gauge dto.Metric
	if err := m.ConnectionsActive.Write(&gauge); err != nil {
		t.Fatalf("writing gauge: %v", err)
	}
	if got := gauge.GetGauge().GetValue(); got != 1 {
		t.Errorf("active connections = %v, want 1", got)
	}
}

func TestNilMetricsAreNoOps(t *testing.T) {
	m := NullMetrics()
	m.RecordConnection("accepted")
	m.SessionStarted()
	m.SessionEnded(1)
	m.RecordDecodeError("x224")
	m.RecordGraphicsUpdate("bitmap")
	m.RecordInputEvent()
}
