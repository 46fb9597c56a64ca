package workflow

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is a Prometheus-backed metrics sink for the workflow
// scheduler (component I), adapted from the teacher's node-execution
// metrics to the step-level vocabulary of this runtime: steps replace
// nodes, and there is no frontier queue depth to track since the
// scheduler dispatches the whole Ready set each round rather than
// through a priority queue.
type Metrics struct {
	stepsStarted   *prometheus.CounterVec
	stepsCompleted *prometheus.CounterVec
	stepsFailed    *prometheus.CounterVec
	stepsRetried   *prometheus.CounterVec
	stepLatency    *prometheus.HistogramVec
	activeSteps    prometheus.Gauge

	mu        sync.Mutex
	startedAt map[string]time.Time

	active    atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	retried   atomic.Int64
}

// Snapshot is a point-in-time summary an embedder polls for scheduler
// health, cheaper than scraping the Prometheus registry.
type Snapshot struct {
	Active    int64
	Completed int64
	Failed    int64
	Retried   int64
}

// Snapshot returns the current scheduler-health counters.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Active:    m.active.Load(),
		Completed: m.completed.Load(),
		Failed:    m.failed.Load(),
		Retried:   m.retried.Load(),
	}
}

// NewMetrics registers the "corelang_workflow_*" metric family with
// registry. Pass prometheus.DefaultRegisterer for the global registry,
// or a fresh prometheus.NewRegistry() for test isolation.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		stepsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corelang",
			Subsystem: "workflow",
			Name:      "steps_started_total",
			Help:      "Workflow steps dispatched to a worker.",
		}, []string{"step"}),
		stepsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corelang",
			Subsystem: "workflow",
			Name:      "steps_completed_total",
			Help:      "Workflow steps that completed successfully.",
		}, []string{"step"}),
		stepsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corelang",
			Subsystem: "workflow",
			Name:      "steps_failed_total",
			Help:      "Workflow steps that exhausted retries and failed.",
		}, []string{"step"}),
		stepsRetried: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corelang",
			Subsystem: "workflow",
			Name:      "steps_retried_total",
			Help:      "Workflow step retry attempts.",
		}, []string{"step"}),
		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "corelang",
			Subsystem: "workflow",
			Name:      "step_latency_ms",
			Help:      "Step execution duration in milliseconds, start to terminal state.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"step", "status"}),
		activeSteps: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "corelang",
			Subsystem: "workflow",
			Name:      "active_steps",
			Help:      "Steps currently Running.",
		}),
		startedAt: make(map[string]time.Time),
	}
}

func (m *Metrics) stepStarted(step string) {
	m.stepsStarted.WithLabelValues(step).Inc()
	m.activeSteps.Inc()
	m.active.Add(1)
	m.mu.Lock()
	m.startedAt[step] = time.Now()
	m.mu.Unlock()
}

func (m *Metrics) stepCompleted(step string) {
	m.stepsCompleted.WithLabelValues(step).Inc()
	m.activeSteps.Dec()
	m.active.Add(-1)
	m.completed.Add(1)
	m.observeLatency(step, "success")
}

func (m *Metrics) stepFailed(step string) {
	m.stepsFailed.WithLabelValues(step).Inc()
	m.activeSteps.Dec()
	m.active.Add(-1)
	m.failed.Add(1)
	m.observeLatency(step, "error")
}

func (m *Metrics) stepRetried(step string) {
	m.stepsRetried.WithLabelValues(step).Inc()
	m.retried.Add(1)
}

func (m *Metrics) observeLatency(step, status string) {
	m.mu.Lock()
	start, ok := m.startedAt[step]
	delete(m.startedAt, step)
	m.mu.Unlock()
	if !ok {
		return
	}
	m.stepLatency.WithLabelValues(step, status).Observe(float64(time.Since(start).Milliseconds()))
}
