package interp

import (
	"context"
	"errors"
	"time"

	corelang "github.com/dshills/corelang-go"
	"github.com/dshills/corelang-go/effect"
	"github.com/dshills/corelang-go/value"
	"github.com/dshills/corelang-go/workflow"
)

// StartNode launches Expr's closure call concurrently under name,
// registering it in the current activation's task registry (component
// G). `start` requires the Async effect, per spec §6.
type StartNode struct {
	Name string
	Expr Node
}

func (n *StartNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	if err := effect.Require(ctx, effect.Async); err != nil {
		return value.Value{}, err
	}
	v, err := n.Expr.Eval(ctx, ec)
	if err != nil {
		return value.Value{}, err
	}
	closure, ok := v.AsClosure()
	if !ok {
		return value.Value{}, corelang.NewError(corelang.KindTypeError, "start: expected a zero-argument closure, got %s", v.Kind())
	}
	body := func(taskCtx context.Context) (value.Value, error) {
		return closure.Call(taskCtx, nil)
	}
	if _, err := ec.Tasks.Start(ctx, n.Name, body); err != nil {
		return value.Value{}, err
	}
	return value.TaskHandleValue(n.Name), nil
}

// WaitNode blocks until every named task is terminal, publishing each
// Completed one's result into the enclosing environment under its
// name, per spec §4.
type WaitNode struct{ Names []string }

func (n *WaitNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	if err := effect.Require(ctx, effect.Async); err != nil {
		return value.Value{}, err
	}
	if err := ec.Tasks.WaitAll(ctx, n.Names, ec.Env); err != nil {
		return value.Value{}, err
	}
	return value.Null(), nil
}

// AwaitNode blocks on a single task handle and yields its result.
type AwaitNode struct{ Expr Node }

func (n *AwaitNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	if err := effect.Require(ctx, effect.Async); err != nil {
		return value.Value{}, err
	}
	v, err := n.Expr.Eval(ctx, ec)
	if err != nil {
		return value.Value{}, err
	}
	id, ok := v.TaskID()
	if !ok {
		return value.Value{}, corelang.NewError(corelang.KindTypeError, "await: expected a task handle, got %s", v.Kind())
	}
	return ec.Tasks.Await(ctx, id)
}

// WorkflowStepSpec is one compiled workflow step: its body (evaluated
// under the workflow's own Frame/Environment), declared dependency
// names and optional compensation body and retry policy.
type WorkflowStepSpec struct {
	Name       string
	Body       *Block
	Deps       []string
	Compensate *Block
	Retry      *workflow.RetryPolicy
}

// WorkflowNode builds a fresh Graph from StepSpecs and drives it with a
// Scheduler bounded by the Runtime's configured worker pool, under
// TimeoutMillis (0 = unbounded), per spec §4.4.
type WorkflowNode struct {
	Steps         []WorkflowStepSpec
	TimeoutMillis int64
}

func (n *WorkflowNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	if err := effect.Require(ctx, effect.Async); err != nil {
		return value.Value{}, err
	}

	det := ec.RT.Det
	wfTasks := make([]*workflow.Task, len(n.Steps))
	for i, step := range n.Steps {
		wfTasks[i] = buildWorkflowTask(step, ec)
	}

	graph, err := workflow.NewGraph(wfTasks)
	if err != nil {
		return value.Value{}, err
	}

	opts := ec.RT.WorkflowOpts
	var schedOpts []workflow.SchedulerOption
	if opts.Metrics != nil {
		schedOpts = append(schedOpts, workflow.WithMetrics(opts.Metrics))
	}
	if opts.EventSink != nil {
		schedOpts = append(schedOpts, workflow.WithEventSink(opts.EventSink))
	}
	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	sched := workflow.NewScheduler(maxWorkers, schedOpts...)

	timeout := time.Duration(n.TimeoutMillis) * time.Millisecond
	if err := sched.Run(ctx, graph, det, timeout, ec.Env); err != nil {
		return value.Value{}, err
	}
	return value.Null(), nil
}

// buildWorkflowTask closes a WorkflowStepSpec's body and optional
// compensation over ec, producing the workflow.Task the Scheduler
// drives. Each step re-enters the interpreter under the stepCtx the
// Scheduler derives from the workflow's own context, so it carries the
// enclosing function's effect permission set. A `return` inside a step
// body ends that step and becomes its published result.
func buildWorkflowTask(step WorkflowStepSpec, ec *EvalContext) *workflow.Task {
	body := func(stepCtx context.Context) (value.Value, error) {
		v, err := step.Body.Eval(stepCtx, ec)
		var nlr *nonLocalReturn
		if errors.As(err, &nlr) {
			return nlr.Value, nil
		}
		return v, err
	}
	t := workflow.NewTask(step.Name, body, step.Deps)
	t.RetryPolicy = step.Retry
	if step.Compensate != nil {
		t.Compensate = func(compCtx context.Context) error {
			_, err := step.Compensate.Eval(compCtx, ec)
			return err
		}
	}
	return t
}
