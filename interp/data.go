package interp

import (
	"context"

	corelang "github.com/dshills/corelang-go"
	"github.com/dshills/corelang-go/value"
)

// ConstructNode builds a Record of the declared DataFields (in the
// Data type's declaration order) from field initializers evaluated in
// source order, per spec §4: "verifies exact match to the Data type's
// declared fields (no missing, no extra, no duplicate)".
type ConstructNode struct {
	TypeName   string
	DataFields []string
	Fields     []FieldInitNode
}

// FieldInitNode is one `name: expr` entry of a Construct expression.
type FieldInitNode struct {
	Name string
	Expr Node
}

func (n *ConstructNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	vals := make(map[string]value.Value, len(n.Fields))
	for _, fi := range n.Fields {
		if _, dup := vals[fi.Name]; dup {
			return value.Value{}, corelang.NewError(corelang.KindArgumentError, "%s: duplicate field %q", n.TypeName, fi.Name)
		}
		v, err := fi.Expr.Eval(ctx, ec)
		if err != nil {
			return value.Value{}, err
		}
		vals[fi.Name] = v
	}
	declared := make(map[string]struct{}, len(n.DataFields))
	for _, df := range n.DataFields {
		declared[df] = struct{}{}
	}
	for name := range vals {
		if _, ok := declared[name]; !ok {
			return value.Value{}, corelang.NewError(corelang.KindArgumentError, "%s: unexpected field %q", n.TypeName, name)
		}
	}
	m := value.NewMap()
	for _, df := range n.DataFields {
		v, ok := vals[df]
		if !ok {
			return value.Value{}, corelang.NewError(corelang.KindArgumentError, "%s: missing field %q", n.TypeName, df)
		}
		m.Set(df, v)
	}
	return value.RecordValue(&value.Record{TypeName: n.TypeName, Fields: m}), nil
}

type OkNode struct{ Expr Node }

func (n *OkNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	v, err := n.Expr.Eval(ctx, ec)
	if err != nil {
		return value.Value{}, err
	}
	return value.Ok(v), nil
}

type ErrNode struct{ Expr Node }

func (n *ErrNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	v, err := n.Expr.Eval(ctx, ec)
	if err != nil {
		return value.Value{}, err
	}
	return value.Err(v), nil
}

type SomeNode struct{ Expr Node }

func (n *SomeNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	v, err := n.Expr.Eval(ctx, ec)
	if err != nil {
		return value.Value{}, err
	}
	return value.Some(v), nil
}

type NoneNode struct{}

func (*NoneNode) Eval(context.Context, *EvalContext) (value.Value, error) {
	return value.None(), nil
}

// PIIWrapNode wraps Expr's value with the declared PII category and
// sensitivity, used where the Loader builds a Construct field
// initializer whose Data field is declared with a PiiType (spec §3, §6).
type PIIWrapNode struct {
	Expr        Node
	Category    string
	Sensitivity string
}

func (n *PIIWrapNode) Eval(ctx context.Context, ec *EvalContext) (value.Value, error) {
	v, err := n.Expr.Eval(ctx, ec)
	if err != nil {
		return value.Value{}, err
	}
	return value.PII(v, n.Category, n.Sensitivity), nil
}
