package value

import "context"

// Callable is the narrow interface a Closure's call target satisfies.
// The value package never imports interp: the loader builds a concrete
// Callable (a compiled function body plus its frame layout) and stores
// it on the Closure at creation time, the same way the teacher's Node
// interface separates "what runs" from "the value that carries it".
type Callable interface {
	Call(ctx context.Context, args []Value) (Value, error)
}

// Closure is a first-class function value: an ordered parameter list,
// an ordered capture list with values snapshotted at the lambda's
// creation site, and a reference to the compiled body. RequiredEffects
// is the declared effect set the effect gate swaps in for the duration
// of the call.
type Closure struct {
	Params          []string
	Captures        []string
	CapturedValues  []Value
	RequiredEffects []string
	Target          Callable
}

// Call invokes the closure's target with positional arguments.
func (c *Closure) Call(ctx context.Context, args []Value) (Value, error) {
	return c.Target.Call(ctx, args)
}

// Pure reports whether the closure declares no required effects, the
// signal the purity analyzer (component K) records for parallelization
// hints.
func (c *Closure) Pure() bool {
	return len(c.RequiredEffects) == 0
}
