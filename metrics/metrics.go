// Package metrics provides Prometheus metrics for the scheduling core:
// period execution counts and durations, scheduler slippage events,
// Chassis running state, and failed Chassis starts. Grounded on
// r3e-network-service_layer's infrastructure/metrics/metrics.go — same
// New/NewWithRegistry shape, same CounterVec/HistogramVec/GaugeVec layout.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for a running Node.
type Metrics struct {
	PeriodExecutionsTotal *prometheus.CounterVec
	PeriodExecutionFailed *prometheus.CounterVec
	PeriodDuration        *prometheus.HistogramVec
	SchedulerSlippageTotal *prometheus.CounterVec

	ChassisErrorsTotal *prometheus.CounterVec
	ChassisRunning     *prometheus.GaugeVec

	PointWritesTotal *prometheus.CounterVec
}

// New creates a Metrics instance registered against the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a Metrics instance registered against registerer,
// so tests can use a fresh prometheus.NewRegistry() instead of polluting
// the process-wide default one.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		PeriodExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxtnode_period_executions_total",
				Help: "Total number of scheduler period executions, by chassis and period kind",
			},
			[]string{"chassis", "kind"},
		),
		PeriodExecutionFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxtnode_period_execution_failures_total",
				Help: "Total number of scheduler period executions that returned failure",
			},
			[]string{"chassis", "kind"},
		),
		PeriodDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fxtnode_period_execution_seconds",
				Help:    "Wall-clock time spent executing one period pass",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5},
			},
			[]string{"chassis", "kind"},
		),
		SchedulerSlippageTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxtnode_scheduler_slippage_total",
				Help: "Total number of times a period's execution ran long enough to require re-anchoring",
			},
			[]string{"chassis", "kind"},
		),
		ChassisErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxtnode_chassis_errors_total",
				Help: "Total number of failed chassis starts",
			},
			[]string{"chassis"},
		),
		ChassisRunning: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fxtnode_chassis_running",
				Help: "1 if the chassis's scheduler is currently running, 0 otherwise",
			},
			[]string{"chassis"},
		),
		PointWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxtnode_point_writes_total",
				Help: "Total number of Point writes, by request source",
			},
			[]string{"source"},
		),
	}

	registerer.MustRegister(
		m.PeriodExecutionsTotal,
		m.PeriodExecutionFailed,
		m.PeriodDuration,
		m.SchedulerSlippageTotal,
		m.ChassisErrorsTotal,
		m.ChassisRunning,
		m.PointWritesTotal,
	)
	return m
}

// ObservePeriod records one period execution's outcome and duration.
func (m *Metrics) ObservePeriod(chassisName, kind string, ok bool, seconds float64) {
	m.PeriodExecutionsTotal.WithLabelValues(chassisName, kind).Inc()
	if !ok {
		m.PeriodExecutionFailed.WithLabelValues(chassisName, kind).Inc()
	}
	m.PeriodDuration.WithLabelValues(chassisName, kind).Observe(seconds)
}

// ObserveSlippage records one re-anchoring event for a period.
func (m *Metrics) ObserveSlippage(chassisName, kind string) {
	m.SchedulerSlippageTotal.WithLabelValues(chassisName, kind).Inc()
}

// SetChassisRunning records whether a chassis's scheduler is currently armed.
func (m *Metrics) SetChassisRunning(chassisName string, running bool) {
	v := 0.0
	if running {
		v = 1.0
	}
	m.ChassisRunning.WithLabelValues(chassisName).Set(v)
}

// ObserveChassisError increments the error counter for a chassis.
func (m *Metrics) ObserveChassisError(chassisName string) {
	m.ChassisErrorsTotal.WithLabelValues(chassisName).Inc()
}
