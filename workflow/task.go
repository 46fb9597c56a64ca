// Package workflow implements the async task registry (component G), the
// dependency graph (component H), the workflow scheduler (component I),
// the determinism context (component J) and the purity analyzer
// (component K). It is used both by bare `start`/`await`/`wait`
// (tasks with no declared dependencies, run as soon as started) and by
// the `workflow` statement (a full DAG with retry, compensation and
// timeout), which builds its own Graph of Tasks and drives them with a
// Scheduler.
package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/dshills/corelang-go/value"
)

// State is a task's position in the state machine spec §4.4 describes:
//
//	Pending --(deps=0)--> Ready --(worker picks)--> Running --success--> Completed
//	                                              \--error--> (retry? Ready) | Failed
//	Ready/Pending --(upstream Failed)--> Cancelled
//	Running --(timeout)--> Cancelled
type State int

const (
	Pending State = iota
	Ready
	Running
	Completed
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

func (s State) Terminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

// Strategy is a retry backoff shape.
type Strategy int

const (
	Exponential Strategy = iota
	Linear
)

// RetryPolicy configures automatic retry of a failed task, per spec §3
// and §4.4 step 3.
type RetryPolicy struct {
	MaxAttempts int
	Strategy    Strategy
	BaseDelay   time.Duration
}

// Body is a task's executable unit. It receives only the context the
// scheduler or registry derived for it, which carries the inherited
// effect permission set; any bindings it reads come from the closure
// it was built from.
type Body func(ctx context.Context) (value.Value, error)

// Task is a named unit of concurrent work. Bare `start`ed tasks have no
// Deps and no RetryPolicy; workflow steps carry both.
type Task struct {
	ID           string
	Body         Body
	Deps         []string
	RetryPolicy  *RetryPolicy
	Compensate   func(ctx context.Context) error

	mu        sync.Mutex
	state     State
	result    value.Value
	failure   error
	attempt   int
	done      chan struct{}
	completedAt int64 // never set; Scheduler.Run keeps the completion order for compensation itself
}

func newTask(id string, body Body, deps []string) *Task {
	return &Task{ID: id, Body: body, Deps: append([]string(nil), deps...), state: Pending, done: make(chan struct{})}
}

// NewTask builds a workflow-graph task named id with the given body and
// dependency names, for WorkflowNode to assemble a Graph from compiled
// workflow steps. RetryPolicy and Compensate are set by the caller
// after construction.
func NewTask(id string, body Body, deps []string) *Task {
	return newTask(id, body, deps)
}

// State returns the task's current state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Result returns the completed result, or the zero Value if the task
// never completed successfully.
func (t *Task) Result() value.Value {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Failure returns the stored failure, if any.
func (t *Task) Failure() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failure
}

// Done returns a channel closed once the task reaches a terminal state.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) setState(s State) {
	t.mu.Lock()
	t.state = s
	terminal := s.Terminal()
	t.mu.Unlock()
	if terminal {
		closeOnce(t.done)
	}
}

func (t *Task) setResult(v value.Value) {
	t.mu.Lock()
	t.result = v
	t.state = Completed
	t.mu.Unlock()
	closeOnce(t.done)
}

func (t *Task) setFailure(err error) {
	t.mu.Lock()
	t.failure = err
	t.state = Failed
	t.mu.Unlock()
	closeOnce(t.done)
}

func closeOnce(ch chan struct{}) {
	select {
	case <-ch:
	default:
		close(ch)
	}
}
