package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.WithLabelValues(labels...).Write(m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestObservePeriodRecordsOutcomeAndDuration(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.ObservePeriod("main", "input", true, 0.001)
	m.ObservePeriod("main", "input", false, 0.002)

	if got := counterValue(t, m.PeriodExecutionsTotal, "main", "input"); got != 2 {
		t.Errorf("PeriodExecutionsTotal = %v, want 2", got)
	}
	if got := counterValue(t, m.PeriodExecutionFailed, "main", "input"); got != 1 {
		t.Errorf("PeriodExecutionFailed = %v, want 1", got)
	}
}

func TestObserveSlippageAndChassisState(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.ObserveSlippage("main", "execution")
	if got := counterValue(t, m.SchedulerSlippageTotal, "main", "execution"); got != 1 {
		t.Errorf("SchedulerSlippageTotal = %v, want 1", got)
	}

	m.ObserveChassisError("main")
	if got := counterValue(t, m.ChassisErrorsTotal, "main"); got != 1 {
		t.Errorf("ChassisErrorsTotal = %v, want 1", got)
	}

	m.SetChassisRunning("main", true)
	g := &dto.Metric{}
	if err := m.ChassisRunning.WithLabelValues("main").Write(g); err != nil {
		t.Fatalf("write gauge: %v", err)
	}
	if g.GetGauge().GetValue() != 1 {
		t.Errorf("ChassisRunning = %v, want 1", g.GetGauge().GetValue())
	}
}
