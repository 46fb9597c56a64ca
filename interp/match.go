package interp

import (
	"context"

	corelang "github.com/dshills/corelang-go"
	"github.com/dshills/corelang-go/value"
)

// CompiledPattern attempts to match a scrutinee value, binding any
// pattern names into the enclosing frame or environment as a side
// effect of a successful match.
type CompiledPattern interface {
	Try(ctx context.Context, ec *EvalContext, v value.Value) bool
}

// Binder is where a pattern-bound name lives: a frame slot when the
// Loader could give it one, an Environment cell otherwise.
type Binder struct {
	HasSlot   bool
	SlotIndex int
	Name      string
}

func (b Binder) bind(ec *EvalContext, v value.Value) {
	if b.HasSlot {
		ec.Frame.Slots[b.SlotIndex] = v
		return
	}
	ec.Env.Define(b.Name, v)
}

type WildcardPattern struct{}

func (WildcardPattern) Try(context.Context, *EvalContext, value.Value) bool { return true }

type NamePattern struct{ Bind Binder }

func (p NamePattern) Try(_ context.Context, ec *EvalContext, v value.Value) bool {
	p.Bind.bind(ec, v)
	return true
}

type IntPattern struct{ V int32 }

func (p IntPattern) Try(_ context.Context, _ *EvalContext, v value.Value) bool {
	return value.Equal(v, value.Int(p.V))
}

type NullPattern struct{}

func (NullPattern) Try(_ context.Context, _ *EvalContext, v value.Value) bool {
	return v.Kind() == value.KindNull
}

// ConstructorPattern matches the built-in Ok/Err/Some/None shapes
// (exactly one positional binder, or none for None) or a record type's
// named fields.
type ConstructorPattern struct {
	TypeName string
	Fields   []FieldBinder
}

// FieldBinder binds a matched record field (or, for Ok/Err/Some, the
// sole positional payload) to a name.
type FieldBinder struct {
	FieldName string // ignored for Ok/Err/Some
	Bind      Binder
}

func (p ConstructorPattern) Try(_ context.Context, ec *EvalContext, v value.Value) bool {
	switch p.TypeName {
	case "Ok":
		return tryInnerKind(ec, v, value.KindOk, p.Fields)
	case "Err":
		return tryInnerKind(ec, v, value.KindErr, p.Fields)
	case "Some":
		return tryInnerKind(ec, v, value.KindSome, p.Fields)
	case "None":
		return v.Kind() == value.KindNone
	default:
		if v.Kind() != value.KindRecord {
			return false
		}
		r, _ := v.AsRecord()
		if r.TypeName != p.TypeName {
			return false
		}
		for _, fb := range p.Fields {
			fv, ok := r.Fields.Get(fb.FieldName)
			if !ok {
				return false
			}
			fb.Bind.bind(ec, fv)
		}
		return true
	}
}

func tryInnerKind(ec *EvalContext, v value.Value, kind value.Kind, fields []FieldBinder) bool {
	if v.Kind() != kind {
		return false
	}
	if len(fields) == 0 {
		return true
	}
	inner, _ := v.Inner()
	fields[0].Bind.bind(ec, inner)
	return true
}

// MatchCase pairs a compiled pattern with its body.
type MatchCase struct {
	Pattern CompiledPattern
	Body    *Block
}

// MatchNode evaluates Scrutinee once and tries each case's pattern in
// order, raising MatchError if none matches.
type MatchNode struct {
	Scrutinee Node
	Cases     []MatchCase
}

func (n *MatchNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	v, err := n.Scrutinee.Eval(ctx, ec)
	if err != nil {
		return value.Value{}, err
	}
	for _, c := range n.Cases {
		if c.Pattern.Try(ctx, ec, v) {
			return c.Body.Eval(ctx, ec)
		}
	}
	return value.Value{}, corelang.NewError(corelang.KindMatchError, "no pattern matched %s", v.Kind())
}
