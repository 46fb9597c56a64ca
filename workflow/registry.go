package workflow

import (
	"context"
	"fmt"
	"sync"

	corelang "github.com/dshills/corelang-go"
	"github.com/dshills/corelang-go/value"
)

// Publisher receives a task's result as a name binding once it
// completes. interp.Environment satisfies this structurally, so
// workflow never imports interp.
type Publisher interface {
	Publish(name string, v value.Value)
}

// Registry backs the bare `start`/`await`/`wait` operations (component
// G): named tasks with no declared dependencies, launched immediately
// as goroutines and joined by name. It is distinct from Graph+Scheduler,
// which drive a `workflow` statement's declared DAG.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewRegistry returns an empty task registry, one per top-level run or
// per function activation that performs `start`.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

// Start registers a task named name and launches its body immediately
// in a new goroutine. Starting a second task under a name already in
// use is an ArgumentError: names identify tasks uniquely within a
// registry's lifetime.
func (r *Registry) Start(ctx context.Context, name string, body Body) (*Task, error) {
	r.mu.Lock()
	if _, exists := r.tasks[name]; exists {
		r.mu.Unlock()
		return nil, corelang.NewError(corelang.KindArgumentError, "task %q already started", name)
	}
	t := newTask(name, body, nil)
	t.setState(Running)
	r.tasks[name] = t
	r.mu.Unlock()

	go func() {
		v, err := body(ctx)
		if err != nil {
			t.setFailure(err)
			return
		}
		t.setResult(v)
	}()
	return t, nil
}

// lookup finds a previously started task by name.
func (r *Registry) lookup(name string) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[name]
	return t, ok
}

// Await blocks until the named task reaches a terminal state and
// returns its result, or its failure if it failed. Awaiting an unknown
// name is an UnboundName error: await, like a name reference, can only
// resolve something the current scope actually started.
func (r *Registry) Await(ctx context.Context, name string) (value.Value, error) {
	t, ok := r.lookup(name)
	if !ok {
		return value.Value{}, corelang.NewError(corelang.KindUnboundName, "task %q", name)
	}
	select {
	case <-t.Done():
	case <-ctx.Done():
		return value.Value{}, corelang.Wrap(corelang.KindCancelledError, ctx.Err(), "awaiting task %q", name)
	}
	if err := t.Failure(); err != nil {
		return value.Value{}, err
	}
	return t.Result(), nil
}

// WaitAll blocks until every named task is terminal, then publishes
// each Completed task's result into pub under its name. The first
// failure encountered (in name order) is returned after all tasks have
// settled, matching the spec's "wait" semantics of joining a cohort
// before reporting.
func (r *Registry) WaitAll(ctx context.Context, names []string, pub Publisher) error {
	var firstErr error
	for _, name := range names {
		t, ok := r.lookup(name)
		if !ok {
			if firstErr == nil {
				firstErr = corelang.NewError(corelang.KindUnboundName, "task %q", name)
			}
			continue
		}
		select {
		case <-t.Done():
		case <-ctx.Done():
			if firstErr == nil {
				firstErr = corelang.Wrap(corelang.KindCancelledError, ctx.Err(), "waiting on task %q", name)
			}
			continue
		}
		if err := t.Failure(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("task %q: %w", name, err)
			}
			continue
		}
		pub.Publish(name, t.Result())
	}
	return firstErr
}
