package interp

import (
	"context"

	corelang "github.com/dshills/corelang-go"
	"github.com/dshills/corelang-go/value"
	"github.com/dshills/corelang-go/workflow"
)

// Node is one compiled unit of the executable tree the Loader builds
// from an ir.Module. Eval returns the sentinel *nonLocalReturn error
// when a Return statement unwinds out of the current function body;
// the call boundary (FuncTarget.call) catches it, and so does a
// workflow step body, whose `return` becomes the step's result.
type Node interface {
	Eval(ctx context.Context, ec *EvalContext) (value.Value, error)
}

// EvalContext is the mutable state threaded through one function
// activation's evaluation: its Frame (slot storage), its current
// Environment (innermost lexical scope), the shared Runtime (loader-
// built, read-only lookup tables), and the Tasks registry backing any
// bare `start`/`await`/`wait` performed directly in this activation.
type EvalContext struct {
	Frame *Frame
	Env   *Environment
	RT    *Runtime
	Tasks *workflow.Registry
}

// child returns a copy of ec with a new innermost Environment, used by
// ScopeNode to introduce a runtime child scope without allocating a
// new Frame (spec §4: scope blocks get child environments, not frame
// slots).
func (ec *EvalContext) child() *EvalContext {
	return &EvalContext{Frame: ec.Frame, Env: NewEnvironment(ec.Env), RT: ec.RT, Tasks: ec.Tasks}
}

// nonLocalReturn is the sentinel Eval returns to unwind a Return
// statement out of arbitrarily nested If/Match/Scope evaluation up to
// the enclosing function call.
type nonLocalReturn struct {
	Value value.Value
}

func (*nonLocalReturn) Error() string { return "non-local return" }

// Block evaluates an ordered statement list, returning the last
// statement's value (Null if the block is empty), or propagating the
// first error (including a non-local return) encountered.
type Block struct {
	Stmts []Node
}

func (b *Block) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	result := value.Null()
	for _, stmt := range b.Stmts {
		v, err := stmt.Eval(ctx, ec)
		if err != nil {
			return value.Value{}, err
		}
		result = v
	}
	return result, nil
}

// LiteralNode yields a fixed Value.
type LiteralNode struct{ V value.Value }

func (n *LiteralNode) Eval(context.Context, *EvalContext) (value.Value, error) {
	return n.V, nil
}

// SlotNameNode reads a frame slot resolved at build time.
type SlotNameNode struct{ Index int }

func (n *SlotNameNode) Eval(_ context.Context, ec *EvalContext) (value.Value, error) {
	return ec.Frame.Slots[n.Index], nil
}

// EnvNameNode reads a name through the lexical Environment chain,
// used for scope-local lets and any name the Loader could not bind to
// a frame slot at build time.
type EnvNameNode struct{ Name string }

func (n *EnvNameNode) Eval(_ context.Context, ec *EvalContext) (value.Value, error) {
	v, ok := ec.Env.Lookup(n.Name)
	if !ok {
		return value.Value{}, corelang.NewError(corelang.KindUnboundName, "%s", n.Name)
	}
	return v, nil
}

// EnumRefNode yields a pre-built enum variant value, resolved once at
// load time for a bare name matching a known Type.Variant.
type EnumRefNode struct{ V value.Value }

func (n *EnumRefNode) Eval(context.Context, *EvalContext) (value.Value, error) {
	return n.V, nil
}

// MemberAccessNode walks a dotted name's field-access chain at
// runtime: Base resolves the first segment, then each entry in Path
// reads a record or map field in turn.
type MemberAccessNode struct {
	Base Node
	Path []string
}

func (n *MemberAccessNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	v, err := n.Base.Eval(ctx, ec)
	if err != nil {
		return value.Value{}, err
	}
	for _, seg := range n.Path {
		v, err = memberGet(v, seg)
		if err != nil {
			return value.Value{}, err
		}
	}
	return v, nil
}

func memberGet(v value.Value, field string) (value.Value, error) {
	switch v.Kind() {
	case value.KindRecord:
		r, _ := v.AsRecord()
		fv, ok := r.Fields.Get(field)
		if !ok {
			return value.Value{}, corelang.NewError(corelang.KindTypeError, "%s has no field %q", r.TypeName, field)
		}
		return fv, nil
	case value.KindMap:
		m, _ := v.AsMap()
		fv, ok := m.Get(field)
		if !ok {
			return value.Value{}, corelang.NewError(corelang.KindTypeError, "map has no key %q", field)
		}
		return fv, nil
	default:
		return value.Value{}, corelang.NewError(corelang.KindTypeError, "cannot access field %q of a %s", field, v.Kind())
	}
}

// LetNode binds Expr's value either into a frame slot (HasSlot) or
// into the current Environment (a scope-local let).
type LetNode struct {
	HasSlot   bool
	SlotIndex int
	Name      string
	Expr      Node
}

func (n *LetNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	v, err := n.Expr.Eval(ctx, ec)
	if err != nil {
		return value.Value{}, err
	}
	if n.HasSlot {
		ec.Frame.Slots[n.SlotIndex] = v
	} else {
		ec.Env.Define(n.Name, v)
	}
	return value.Null(), nil
}

// SetNode overwrites an existing binding, either a frame slot or,
// failing that, a name reachable through the Environment chain.
type SetNode struct {
	HasSlot   bool
	SlotIndex int
	Name      string
	Expr      Node
}

func (n *SetNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	v, err := n.Expr.Eval(ctx, ec)
	if err != nil {
		return value.Value{}, err
	}
	if n.HasSlot {
		ec.Frame.Slots[n.SlotIndex] = v
		return value.Null(), nil
	}
	if err := ec.Env.Set(n.Name, v); err != nil {
		return value.Value{}, err
	}
	return value.Null(), nil
}

// ScopeNode evaluates its statements under a fresh child Environment,
// layered over the enclosing Frame (spec §4: scope introduces a
// runtime child environment, not new frame slots).
type ScopeNode struct{ Body *Block }

func (n *ScopeNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	return n.Body.Eval(ctx, ec.child())
}

// ReturnNode unwinds to the enclosing function call boundary with Expr's
// value, via the nonLocalReturn sentinel.
type ReturnNode struct{ Expr Node }

func (n *ReturnNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	v, err := n.Expr.Eval(ctx, ec)
	if err != nil {
		return value.Value{}, err
	}
	return value.Value{}, &nonLocalReturn{Value: v}
}

// IfNode branches on Cond, which must evaluate to Bool.
type IfNode struct {
	Cond    Node
	Then    *Block
	Else    *Block
	HasElse bool
}

func (n *IfNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	cv, err := n.Cond.Eval(ctx, ec)
	if err != nil {
		return value.Value{}, err
	}
	b, ok := cv.AsBool()
	if !ok {
		return value.Value{}, corelang.NewError(corelang.KindTypeError, "if condition must be Bool, got %s", cv.Kind())
	}
	if b {
		return n.Then.Eval(ctx, ec)
	}
	if n.HasElse {
		return n.Else.Eval(ctx, ec)
	}
	return value.Null(), nil
}
