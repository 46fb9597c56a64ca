package workflow

import "time"

// RunOptions configures `workflow` statement execution, assembled by
// corelang.Load from its options and shared by every `workflow`
// statement of the loaded module (spec §4.4, §5).
type RunOptions struct {
	MaxWorkers        int
	DefaultStepTimeout time.Duration
	Metrics           *Metrics
	EventSink         func(Event)
}

// RunOption is a functional option over RunOptions, mirroring the
// teacher's engine configuration style.
type RunOption func(*RunOptions)

// DefaultRunOptions returns the scheduler's baseline configuration:
// an unbounded-by-default worker pool capped at maxWorkers (callers
// should pass runtime.GOMAXPROCS(0) for the spec's "default: CPU
// count"), no step timeout beyond the workflow's own, and no metrics
// or event sink attached.
func DefaultRunOptions(maxWorkers int) RunOptions {
	return RunOptions{MaxWorkers: maxWorkers}
}

// WithMaxWorkers overrides the bounded worker pool size.
func WithMaxWorkers(n int) RunOption {
	return func(o *RunOptions) { o.MaxWorkers = n }
}

// WithDefaultStepTimeout records a per-step timeout in RunOptions.
// Neither WorkflowNode nor the Scheduler reads it, so no per-step
// timeout is applied; only a workflow's own timeout bounds its steps.
func WithDefaultStepTimeout(d time.Duration) RunOption {
	return func(o *RunOptions) { o.DefaultStepTimeout = d }
}

// WithRunMetrics attaches a Metrics sink.
func WithRunMetrics(m *Metrics) RunOption {
	return func(o *RunOptions) { o.Metrics = m }
}

// WithRunEventSink attaches a lifecycle event callback.
func WithRunEventSink(fn func(Event)) RunOption {
	return func(o *RunOptions) { o.EventSink = fn }
}

// Apply folds a list of RunOption over a base RunOptions.
func Apply(base RunOptions, opts ...RunOption) RunOptions {
	for _, opt := range opts {
		opt(&base)
	}
	return base
}
