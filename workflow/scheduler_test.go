package workflow_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/corelang-go/value"
	"github.com/dshills/corelang-go/workflow"
)

type capturingPublisher struct {
	values map[string]value.Value
}

func newCapturingPublisher() *capturingPublisher {
	return &capturingPublisher{values: make(map[string]value.Value)}
}

func (p *capturingPublisher) Publish(name string, v value.Value) {
	p.values[name] = v
}

func TestSchedulerRunsDiamondDependencyOrder(t *testing.T) {
	var order []string
	record := func(id string) func(ctx context.Context) (value.Value, error) {
		return func(ctx context.Context) (value.Value, error) {
			order = append(order, id)
			return value.Int(1), nil
		}
	}

	a := workflow.NewTask("a", record("a"), nil)
	b := workflow.NewTask("b", record("b"), []string{"a"})
	c := workflow.NewTask("c", record("c"), []string{"a"})
	d := workflow.NewTask("d", record("d"), []string{"b", "c"})

	graph, err := workflow.NewGraph([]*workflow.Task{a, b, c, d})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sched := workflow.NewScheduler(4)
	det := workflow.NewRecordContext("run-diamond")
	pub := newCapturingPublisher()

	if err := sched.Run(context.Background(), graph, det, 0, pub); err != nil {
		t.Fatalf("unexpected workflow failure: %v", err)
	}
	if len(order) != 4 || order[0] != "a" || order[len(order)-1] != "d" {
		t.Fatalf("expected a first and d last in dependency order, got %v", order)
	}
	if len(pub.values) != 4 {
		t.Fatalf("expected all four steps to publish a result, got %d", len(pub.values))
	}
}

func TestSchedulerRetriesUntilSuccess(t *testing.T) {
	var attempts atomic.Int32
	body := func(ctx context.Context) (value.Value, error) {
		n := attempts.Add(1)
		if n < 3 {
			return value.Value{}, errors.New("transient")
		}
		return value.Int(7), nil
	}
	task := workflow.NewTask("flaky", body, nil)
	task.RetryPolicy = &workflow.RetryPolicy{MaxAttempts: 5, Strategy: workflow.Exponential, BaseDelay: time.Millisecond}

	graph, err := workflow.NewGraph([]*workflow.Task{task})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sched := workflow.NewScheduler(1)
	det := workflow.NewRecordContext("run-retry")
	pub := newCapturingPublisher()

	if err := sched.Run(context.Background(), graph, det, 0, pub); err != nil {
		t.Fatalf("unexpected workflow failure after eventual success: %v", err)
	}
	if attempts.Load() != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", attempts.Load())
	}
	v := pub.values["flaky"]
	n, _ := v.AsInt()
	if n != 7 {
		t.Fatalf("expected the eventual result 7, got %d", n)
	}
}

func TestSchedulerExhaustsRetriesAndFails(t *testing.T) {
	var attempts atomic.Int32
	body := func(ctx context.Context) (value.Value, error) {
		attempts.Add(1)
		return value.Value{}, errors.New("permanent")
	}
	task := workflow.NewTask("broken", body, nil)
	task.RetryPolicy = &workflow.RetryPolicy{MaxAttempts: 2, Strategy: workflow.Linear, BaseDelay: time.Millisecond}

	graph, err := workflow.NewGraph([]*workflow.Task{task})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sched := workflow.NewScheduler(1)
	det := workflow.NewRecordContext("run-exhaust")
	pub := newCapturingPublisher()

	err = sched.Run(context.Background(), graph, det, 0, pub)
	if err == nil {
		t.Fatalf("expected a WorkflowFailure once retries are exhausted")
	}
	if attempts.Load() != 2 {
		t.Fatalf("expected exactly MaxAttempts=2 attempts, got %d", attempts.Load())
	}
}

func TestSchedulerCascadesFailureToDependents(t *testing.T) {
	var downstreamRan atomic.Bool
	a := workflow.NewTask("a", func(ctx context.Context) (value.Value, error) {
		return value.Value{}, errors.New("a failed")
	}, nil)
	b := workflow.NewTask("b", func(ctx context.Context) (value.Value, error) {
		downstreamRan.Store(true)
		return value.Int(1), nil
	}, []string{"a"})

	graph, err := workflow.NewGraph([]*workflow.Task{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sched := workflow.NewScheduler(2)
	det := workflow.NewRecordContext("run-cascade")
	pub := newCapturingPublisher()

	if err := sched.Run(context.Background(), graph, det, 0, pub); err == nil {
		t.Fatalf("expected a WorkflowFailure")
	}
	if downstreamRan.Load() {
		t.Fatalf("expected b to be cancelled, not executed, once a fails")
	}
	if graph.Task("b").State() != workflow.Cancelled {
		t.Fatalf("expected b's state to be Cancelled, got %s", graph.Task("b").State())
	}
}

func TestSchedulerRunsCompensationInReverseCompletionOrder(t *testing.T) {
	var compensated []string
	compFor := func(id string) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			compensated = append(compensated, id)
			return nil
		}
	}

	a := workflow.NewTask("a", func(ctx context.Context) (value.Value, error) { return value.Int(1), nil }, nil)
	a.Compensate = compFor("a")
	b := workflow.NewTask("b", func(ctx context.Context) (value.Value, error) { return value.Int(1), nil }, []string{"a"})
	b.Compensate = compFor("b")
	c := workflow.NewTask("c", func(ctx context.Context) (value.Value, error) {
		return value.Value{}, errors.New("c failed")
	}, []string{"b"})

	graph, err := workflow.NewGraph([]*workflow.Task{a, b, c})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sched := workflow.NewScheduler(1)
	det := workflow.NewRecordContext("run-compensate")
	pub := newCapturingPublisher()

	if err := sched.Run(context.Background(), graph, det, 0, pub); err == nil {
		t.Fatalf("expected a WorkflowFailure from c")
	}
	if len(compensated) != 2 || compensated[0] != "b" || compensated[1] != "a" {
		t.Fatalf("expected compensation in reverse completion order [b a], got %v", compensated)
	}
}

func TestSchedulerCompensationErrorsAreSuppressedNotFatal(t *testing.T) {
	a := workflow.NewTask("a", func(ctx context.Context) (value.Value, error) { return value.Int(1), nil }, nil)
	a.Compensate = func(ctx context.Context) error { return errors.New("compensation broke") }
	b := workflow.NewTask("b", func(ctx context.Context) (value.Value, error) {
		return value.Value{}, errors.New("b failed")
	}, []string{"a"})

	graph, err := workflow.NewGraph([]*workflow.Task{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sched := workflow.NewScheduler(1)
	det := workflow.NewRecordContext("run-comp-err")
	pub := newCapturingPublisher()

	err = sched.Run(context.Background(), graph, det, 0, pub)
	if err == nil {
		t.Fatalf("expected the original workflow failure to still surface")
	}
}

func TestSchedulerEnforcesWallClockTimeout(t *testing.T) {
	started := make(chan struct{})
	task := workflow.NewTask("slow", func(ctx context.Context) (value.Value, error) {
		close(started)
		select {
		case <-time.After(time.Second):
			return value.Int(1), nil
		case <-ctx.Done():
			return value.Value{}, ctx.Err()
		}
	}, nil)

	graph, err := workflow.NewGraph([]*workflow.Task{task})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sched := workflow.NewScheduler(1)
	det := workflow.NewRecordContext("run-timeout")
	pub := newCapturingPublisher()

	start := time.Now()
	err = sched.Run(context.Background(), graph, det, 20*time.Millisecond, pub)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatalf("expected a timeout-driven WorkflowFailure")
	}
	if elapsed > time.Second {
		t.Fatalf("expected the workflow timeout to cut the run short, took %v", elapsed)
	}
	<-started
}
