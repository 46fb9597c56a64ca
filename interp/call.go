package interp

import (
	"context"
	"errors"

	corelang "github.com/dshills/corelang-go"
	"github.com/dshills/corelang-go/builtin"
	"github.com/dshills/corelang-go/effect"
	"github.com/dshills/corelang-go/value"
	"github.com/dshills/corelang-go/workflow"
)

// FuncTarget is a compiled function body plus its frame layout: the
// Loader builds exactly one per ir.FuncDecl (and one per LambdaExpr),
// shared across every closure value that wraps it — only the captured
// values differ between instances of the same lambda.
type FuncTarget struct {
	Name        string
	ParamNames  []string
	NumSlots    int
	Effects     []string
	Body        *Block
	RT          *Runtime
}

// call builds a fresh Frame (params, then captures, per spec §4's
// "slots 0..P−1 receive positional arguments and P..P+C−1 receive the
// stored captures"), swaps in the function's declared effect set for
// the body's evaluation, and catches the non-local return sentinel at
// this boundary (workflow step bodies are the only other place that
// catches it).
func (f *FuncTarget) call(ctx context.Context, args []value.Value, captures []value.Value) (value.Value, error) {
	if len(args) != len(f.ParamNames) {
		return value.Value{}, corelang.NewError(corelang.KindArityError, "%s: expected %d argument(s), got %d", f.Name, len(f.ParamNames), len(args))
	}
	frame := NewFrame(f.NumSlots)
	copy(frame.Slots, args)
	copy(frame.Slots[len(args):], captures)

	calleeCtx := effect.WithSet(ctx, effect.NewSet(f.Effects...))
	ec := &EvalContext{
		Frame: frame,
		Env:   NewEnvironment(f.RT.Global),
		RT:    f.RT,
		Tasks: workflow.NewRegistry(),
	}

	v, err := f.Body.Eval(calleeCtx, ec)
	if err != nil {
		var nlr *nonLocalReturn
		if errors.As(err, &nlr) {
			return nlr.Value, nil
		}
		return value.Value{}, err
	}
	return v, nil
}

// boundTarget binds a FuncTarget to one closure instance's captured
// values, satisfying value.Callable.
type boundTarget struct {
	fn       *FuncTarget
	captures []value.Value
}

func (b *boundTarget) Call(ctx context.Context, args []value.Value) (value.Value, error) {
	return b.fn.call(ctx, args, b.captures)
}

// LambdaNode constructs a Closure value: CaptureSources resolve each
// captured name's current value at the lambda's creation site (the
// enclosing frame/environment), snapshotted once at construction time.
type LambdaNode struct {
	Fn              *FuncTarget
	CaptureNames    []string
	CaptureSources  []Node
	RequiredEffects []string
}

func (n *LambdaNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	captured := make([]value.Value, len(n.CaptureSources))
	for i, src := range n.CaptureSources {
		v, err := src.Eval(ctx, ec)
		if err != nil {
			return value.Value{}, err
		}
		captured[i] = v
	}
	if ec.RT.Analyzer != nil {
		target := n.Fn.Name
		if target == "" {
			target = "<lambda>"
		}
		ec.RT.Analyzer.RecordClosure(target, len(n.RequiredEffects) == 0)
	}
	cl := &value.Closure{
		Params:          n.Fn.ParamNames,
		Captures:        n.CaptureNames,
		CapturedValues:  captured,
		RequiredEffects: n.RequiredEffects,
		Target:          &boundTarget{fn: n.Fn, captures: captured},
	}
	return value.ClosureValue(cl), nil
}

// BuiltinCallNode invokes a host built-in resolved by name at load
// time (spec §4: "selected at load time by lowering to a dedicated
// built-in node").
type BuiltinCallNode struct {
	Reg  builtin.Registration
	Args []Node
}

func (n *BuiltinCallNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	if err := effect.RequireAll(ctx, n.Reg.Effects); err != nil {
		return value.Value{}, err
	}
	argVals, err := evalArgs(ctx, ec, n.Args)
	if err != nil {
		return value.Value{}, err
	}
	if err := n.Reg.CheckArity(len(argVals)); err != nil {
		return value.Value{}, err
	}
	return n.Reg.Fn(ctx, argVals)
}

// ClosureCallNode evaluates an arbitrary target expression to a
// Closure value and invokes it.
type ClosureCallNode struct {
	Target Node
	Args   []Node
}

func (n *ClosureCallNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	tv, err := n.Target.Eval(ctx, ec)
	if err != nil {
		return value.Value{}, err
	}
	closure, ok := tv.AsClosure()
	if !ok {
		return value.Value{}, corelang.NewError(corelang.KindTypeError, "call target is not callable, got %s", tv.Kind())
	}
	argVals, err := evalArgs(ctx, ec, n.Args)
	if err != nil {
		return value.Value{}, err
	}
	// Arity is enforced by the call target itself (FuncTarget.call), not
	// here.
	return closure.Call(ctx, argVals)
}

func evalArgs(ctx context.Context, ec *EvalContext, args []Node) ([]value.Value, error) {
	vals := make([]value.Value, len(args))
	for i, a := range args {
		v, err := a.Eval(ctx, ec)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
