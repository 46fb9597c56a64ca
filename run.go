package corelang

import (
	"context"
	"runtime"

	"github.com/google/uuid"

	"github.com/dshills/corelang-go/builtin"
	"github.com/dshills/corelang-go/emit"
	"github.com/dshills/corelang-go/interop"
	"github.com/dshills/corelang-go/interp"
	"github.com/dshills/corelang-go/ir"
	"github.com/dshills/corelang-go/value"
	"github.com/dshills/corelang-go/workflow"
)

// Program is a loaded Core IR module ready to run: the compiled Node
// tree and global bindings the Loader built, plus the ambient
// configuration (metrics, emitter, worker pool) every activation
// shares. Build one with Load and reuse it across many Call calls.
type Program struct {
	rt      *interp.Runtime
	emitter emit.Emitter
}

// Option configures a Program at load time, mirroring the teacher's
// functional-options style (graph.Option).
type Option func(*loadConfig)

type loadConfig struct {
	runID     string
	builtins  *builtin.Registry
	wfOptions []workflow.RunOption
	emitter   emit.Emitter
	replayLog []int64
	cliArgs   []string
}

// WithRunID sets the identifier the determinism context (component J)
// seeds its deterministic RNG from. Two Load calls with the same RunID
// and the same module produce byte-identical jitter sequences.
func WithRunID(id string) Option {
	return func(c *loadConfig) { c.runID = id }
}

// WithBuiltins replaces the default built-in registry (spec §6) with a
// caller-supplied one, e.g. DefaultRegistry() plus host-specific
// additions.
func WithBuiltins(reg *builtin.Registry) Option {
	return func(c *loadConfig) { c.builtins = reg }
}

// WithMaxWorkers bounds the worker pool every `workflow` statement's
// Scheduler dispatches onto.
func WithMaxWorkers(n int) Option {
	return func(c *loadConfig) { c.wfOptions = append(c.wfOptions, workflow.WithMaxWorkers(n)) }
}

// WithMetrics attaches Prometheus counters/histograms to every
// workflow run (component I's instrumentation).
func WithMetrics(m *workflow.Metrics) Option {
	return func(c *loadConfig) { c.wfOptions = append(c.wfOptions, workflow.WithRunMetrics(m)) }
}

// WithEmitter attaches an observability sink (the emit package) that
// receives a lifecycle Event for every step start/completion/failure/
// retry/cancellation/compensation a workflow run produces.
func WithEmitter(e emit.Emitter) Option {
	return func(c *loadConfig) { c.emitter = e }
}

// WithReplayLog puts the determinism context (component J) into replay
// mode, consuming log in place of drawing fresh jitter: re-running the
// same module with the same RunID and the log recorded from a prior
// Program.DeterminismLog reproduces that run's retry delays exactly.
func WithReplayLog(log []int64) Option {
	return func(c *loadConfig) { c.replayLog = log }
}

// WithCLIArgs supplies the command-line arguments (if any) available
// at load time. The loader scores each overloaded function name's
// candidate declarations against them to select its single canonical
// binding (spec §4.2 step 2); omit when no command-line arguments are
// available, in which case the overload with the most parameters wins.
func WithCLIArgs(args []string) Option {
	return func(c *loadConfig) { c.cliArgs = args }
}

// Load compiles mod into a runnable Program. The run ID (WithRunID, or
// a fresh UUID) seeds the determinism context (component J); pass the
// same ID again with WithRunID plus WithReplayLog and the log from
// Program.DeterminismLog to replay a prior execution bit-for-bit.
func Load(mod *ir.Module, opts ...Option) (*Program, error) {
	cfg := &loadConfig{builtins: builtin.DefaultRegistry(), emitter: &emit.NullEmitter{}}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.runID == "" {
		cfg.runID = uuid.NewString()
	}

	// §4.4 point 2's default worker pool is "CPU count", not a single
	// worker; GOMAXPROCS(0) reads the current setting without changing
	// it.
	wfOpts := workflow.Apply(workflow.DefaultRunOptions(runtime.GOMAXPROCS(0)), cfg.wfOptions...)
	if wfOpts.EventSink == nil && cfg.emitter != nil {
		wfOpts.EventSink = eventSinkFor(cfg.runID, cfg.emitter)
	}

	var det *workflow.Context
	if cfg.replayLog != nil {
		det = workflow.NewReplayContext(cfg.runID, cfg.replayLog)
	}

	rt, err := interp.Load(mod, cfg.runID, cfg.builtins, wfOpts, det, cfg.cliArgs)
	if err != nil {
		return nil, err
	}
	return &Program{rt: rt, emitter: cfg.emitter}, nil
}

// eventSinkFor adapts workflow.Event lifecycle notifications to
// emit.Event, so workflow never needs to import emit.
func eventSinkFor(runID string, emitter emit.Emitter) func(workflow.Event) {
	return func(ev workflow.Event) {
		meta := map[string]any{}
		if ev.Err != nil {
			meta["error"] = ev.Err.Error()
		}
		emitter.Emit(emit.Event{
			RunID:   runID,
			Subject: ev.Step,
			Kind:    ev.Kind,
			Message: ev.Kind,
			Meta:    meta,
		})
	}
}

// Call invokes the top-level function named fn with args, returning an
// interop.ListView-friendly value.Value the embedder inspects through
// the interop package rather than the internal representation.
func (p *Program) Call(ctx context.Context, fn string, args []value.Value) (value.Value, error) {
	v, ok := p.rt.Global.Lookup(fn)
	if !ok {
		return value.Value{}, NewError(KindUnboundName, "%s", fn)
	}
	closure, ok := v.AsClosure()
	if !ok {
		return value.Value{}, NewError(KindTypeError, "%s is not a function", fn)
	}
	return closure.Call(ctx, args)
}

// Analyzer exposes the purity analyzer's running aggregate report
// (component K), a parallelization hint an embedder may use to decide
// whether independent steps are safe to reorder.
func (p *Program) Analyzer() workflow.Report {
	return p.rt.Analyzer.Snapshot()
}

// IsPure reports whether every closure built so far for the named
// call-target declared no required effects. Only lambda closures are
// recorded, under "<enclosing function>.<lambda>"; the closures Load
// binds for top-level functions are not, so their names report false.
func (p *Program) IsPure(callTarget string) bool {
	return p.rt.Analyzer.IsPure(callTarget)
}

// DeterminismLog returns the jitter draws recorded so far, to persist
// alongside a run's RunID for later bit-identical replay via
// WithReplayLog.
func (p *Program) DeterminismLog() []int64 {
	return p.rt.Det.Log()
}

// View wraps a returned value.Value for read-only inspection, picking
// the interop wrapper that matches its Kind.
func View(v value.Value) (any, bool) {
	if lv, ok := interop.NewListView(v); ok {
		return lv, true
	}
	if mv, ok := interop.NewMapView(v); ok {
		return mv, true
	}
	if rv, ok := interop.NewRecordView(v); ok {
		return rv, true
	}
	return nil, false
}
