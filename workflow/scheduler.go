package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	corelang "github.com/dshills/corelang-go"
	"golang.org/x/sync/errgroup"
)

// Scheduler drives a single `workflow` statement's Graph to completion
// (component I): a bounded worker pool dispatches Ready tasks, retries
// failed ones per their RetryPolicy with deterministic jittered
// backoff, cascades a step's failure to everything downstream of it,
// runs compensation for completed steps in reverse completion order
// once the workflow as a whole fails, and enforces an overall timeout.
type Scheduler struct {
	maxWorkers int
	metrics    *Metrics
	emit       func(Event)
}

// Event is a lifecycle notification the scheduler reports through, if
// configured. corelang.Load wires emit.Emitter to this via a small
// adapter (eventSinkFor in run.go) so workflow never imports emit.
type Event struct {
	Kind string // "step_started" | "step_completed" | "step_failed" | "step_retrying" | "step_cancelled" | "step_compensated"
	Step string
	Err  error
}

// NewScheduler returns a Scheduler bounded to maxWorkers concurrent
// steps; Run treats maxWorkers <= 0 as 1, so a CPU-count pool comes
// from the caller passing it (component I).
func NewScheduler(maxWorkers int, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{maxWorkers: maxWorkers}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SchedulerOption configures optional Scheduler behavior.
type SchedulerOption func(*Scheduler)

// WithMetrics attaches a Metrics sink.
func WithMetrics(m *Metrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// WithEventSink attaches a callback invoked for every lifecycle event.
func WithEventSink(fn func(Event)) SchedulerOption {
	return func(s *Scheduler) { s.emit = fn }
}

func (s *Scheduler) report(ev Event) {
	if s.emit != nil {
		s.emit(ev)
	}
}

// Run executes graph to completion under det for jitter and timeout
// (0 means no timeout), publishing every Completed step's result into
// pub under its step name as each one finishes. It returns the first
// step failure encountered, wrapped as WorkflowFailure, after every
// task has reached a terminal state and compensation has run.
func (s *Scheduler) Run(ctx context.Context, graph *Graph, det *Context, timeout time.Duration, pub Publisher) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	limit := s.maxWorkers
	if limit <= 0 {
		limit = 1
	}

	var mu sync.Mutex
	var firstFailure error
	var completedOrder []string // completion order, for reverse-order compensation

	dispatch := func(group *errgroup.Group, id string) {
		group.Go(func() error {
			return s.runTask(ctx, graph, det, id, pub, &mu, &firstFailure, &completedOrder)
		})
	}

	for {
		ready := graph.Ready()
		if len(ready) == 0 {
			if graph.AllTerminal() {
				break
			}
			// Nothing ready and not all terminal: every remaining task is
			// blocked on a dependency that was cancelled upstream. Cancel
			// the stragglers directly rather than spin.
			stalled := false
			for _, id := range graph.Order() {
				if graph.Task(id).State() == Pending {
					stalled = true
				}
			}
			if stalled {
				s.cancelRemaining(graph)
			}
			break
		}

		group, gctx := errgroup.WithContext(ctx)
		group.SetLimit(limit)
		for _, id := range ready {
			dispatch(group, id)
		}
		_ = group.Wait()
		_ = gctx

		if ctx.Err() != nil {
			s.cancelRemaining(graph)
			mu.Lock()
			if firstFailure == nil {
				firstFailure = corelang.Wrap(corelang.KindTimeoutError, ctx.Err(), "workflow timed out")
			}
			mu.Unlock()
			break
		}
	}

	if firstFailure != nil {
		compErrs := s.compensate(context.WithoutCancel(ctx), graph, completedOrder)
		wf := corelang.Wrap(corelang.KindWorkflowFailure, firstFailure, "workflow execution failed")
		if len(compErrs) > 0 {
			wf.Message += fmt.Sprintf(" (compensation errors: %s)", errors.Join(compErrs...))
		}
		return wf
	}
	return nil
}

func (s *Scheduler) runTask(ctx context.Context, graph *Graph, det *Context, id string, pub Publisher, mu *sync.Mutex, firstFailure *error, completedOrder *[]string) error {
	t := graph.Task(id)
	t.setState(Running)
	s.report(Event{Kind: "step_started", Step: id})
	if s.metrics != nil {
		s.metrics.stepStarted(id)
	}

	v, err := t.Body(ctx)
	if err == nil {
		t.setResult(v)
		pub.Publish(id, v)
		graph.Decrement(id)
		mu.Lock()
		*completedOrder = append(*completedOrder, id)
		mu.Unlock()
		s.report(Event{Kind: "step_completed", Step: id})
		if s.metrics != nil {
			s.metrics.stepCompleted(id)
		}
		return nil
	}

	if t.RetryPolicy != nil {
		t.mu.Lock()
		t.attempt++
		attempt := t.attempt
		t.mu.Unlock()
		if attempt < t.RetryPolicy.MaxAttempts {
			delay := backoff(t.RetryPolicy, attempt, det)
			s.report(Event{Kind: "step_retrying", Step: id, Err: err})
			if s.metrics != nil {
				s.metrics.stepRetried(id)
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			if ctx.Err() == nil {
				t.setState(Ready)
				return s.runTask(ctx, graph, det, id, pub, mu, firstFailure, completedOrder)
			}
		}
	}

	t.setFailure(err)
	s.report(Event{Kind: "step_failed", Step: id, Err: err})
	if s.metrics != nil {
		s.metrics.stepFailed(id)
	}
	cancelled := graph.MarkDependentsCancelled(id)
	for _, cid := range cancelled {
		s.report(Event{Kind: "step_cancelled", Step: cid})
	}
	mu.Lock()
	if *firstFailure == nil {
		*firstFailure = err
	}
	mu.Unlock()
	return nil
}

func (s *Scheduler) cancelRemaining(graph *Graph) {
	for _, id := range graph.Order() {
		t := graph.Task(id)
		if !t.State().Terminal() {
			t.setState(Cancelled)
		}
	}
}

// compensate runs each Completed step's compensation body in reverse
// completion order, per the spec's rollback invariant, and collects
// any compensation failures as suppressed causes rather than letting
// them interrupt the rollback sweep.
func (s *Scheduler) compensate(ctx context.Context, graph *Graph, completedOrder []string) []error {
	var errs []error
	for i := len(completedOrder) - 1; i >= 0; i-- {
		id := completedOrder[i]
		t := graph.Task(id)
		if t.Compensate == nil {
			continue
		}
		if err := t.Compensate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			s.report(Event{Kind: "step_compensated", Step: id, Err: err})
			continue
		}
		s.report(Event{Kind: "step_compensated", Step: id})
	}
	return errs
}

// backoff computes the delay before a retry: base_delay × k + jitter,
// where k is 2^(attempt-1) for exponential or attempt for linear
// (attempt is the 1-based retry number) and jitter is drawn uniformly
// from [0, base_delay/2) via det, so replays reproduce identical
// delays. A zero base delay yields a zero delay regardless of k.
func backoff(policy *RetryPolicy, attempt int, det *Context) time.Duration {
	base := policy.BaseDelay
	if base <= 0 {
		return 0
	}
	var delay time.Duration
	switch policy.Strategy {
	case Linear:
		delay = base * time.Duration(attempt)
	default:
		delay = base * time.Duration(int64(1)<<uint(attempt-1))
	}
	jitter := time.Duration(det.NextJitter(int64(base) / 2))
	return delay + jitter
}
