package builtin

import (
	"context"
	"fmt"
	"strings"

	corelang "github.com/dshills/corelang-go"
	"github.com/dshills/corelang-go/effect"
	"github.com/dshills/corelang-go/value"
)

// DefaultRegistry returns the built-ins named in spec §6: arithmetic,
// comparison, text, list, Result and Option helpers, and print (the
// only built-in that declares an effect).
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, reg := range []Registration{
		{Name: "add", Arity: 2, Fn: arith(func(a, b float64) float64 { return a + b }, func(a, b int64) int64 { return a + b })},
		{Name: "sub", Arity: 2, Fn: arith(func(a, b float64) float64 { return a - b }, func(a, b int64) int64 { return a - b })},
		{Name: "mul", Arity: 2, Fn: arith(func(a, b float64) float64 { return a * b }, func(a, b int64) int64 { return a * b })},
		{Name: "div", Arity: 2, Fn: divFn},

		{Name: "eq", Arity: 2, Fn: func(_ context.Context, args []value.Value) (value.Value, error) {
			return value.Bool(value.Equal(args[0], args[1])), nil
		}},
		{Name: "lt", Arity: 2, Fn: compareFn(func(c int) bool { return c < 0 })},
		{Name: "gt", Arity: 2, Fn: compareFn(func(c int) bool { return c > 0 })},
		{Name: "le", Arity: 2, Fn: compareFn(func(c int) bool { return c <= 0 })},
		{Name: "ge", Arity: 2, Fn: compareFn(func(c int) bool { return c >= 0 })},

		{Name: "Text.concat", VarArity: true, Fn: textConcat},
		{Name: "Text.length", Arity: 1, Fn: textLength},
		{Name: "Text.contains", Arity: 2, Fn: textContains},
		{Name: "Text.redact", Arity: 1, Fn: textRedact},

		{Name: "List.empty", Arity: 0, Fn: func(_ context.Context, _ []value.Value) (value.Value, error) {
			return value.List(nil), nil
		}},
		{Name: "List.append", Arity: 2, Fn: listAppend},

		{Name: "Result.isOk", Arity: 1, Fn: kindIsFn(func(k value.Kind) bool { return k == value.KindOk })},
		{Name: "Result.isErr", Arity: 1, Fn: kindIsFn(func(k value.Kind) bool { return k == value.KindErr })},
		{Name: "Result.unwrap", Arity: 1, Fn: resultUnwrap},

		{Name: "Option.isSome", Arity: 1, Fn: kindIsFn(func(k value.Kind) bool { return k == value.KindSome })},
		{Name: "Option.isNone", Arity: 1, Fn: kindIsFn(func(k value.Kind) bool { return k == value.KindNone })},
		{Name: "Option.unwrap", Arity: 1, Fn: optionUnwrap},

		{Name: "print", Arity: 1, Effects: []string{effect.IO}, Fn: printFn},
	} {
		r.Register(reg)
	}
	return r
}

func numericPair(a, b value.Value) (af, bf float64, ai, bi int64, isFloat bool, ok bool) {
	toF := func(v value.Value) (float64, int64, bool, bool) {
		switch v.Kind() {
		case value.KindInt:
			i, _ := v.AsInt()
			return float64(i), int64(i), false, true
		case value.KindLong:
			l, _ := v.AsLong()
			return float64(l), l, false, true
		case value.KindDouble:
			d, _ := v.AsDouble()
			return d, 0, true, true
		default:
			return 0, 0, false, false
		}
	}
	af1, ai1, aFloat, aOK := toF(a)
	bf1, bi1, bFloat, bOK := toF(b)
	if !aOK || !bOK {
		return 0, 0, 0, 0, false, false
	}
	return af1, bf1, ai1, bi1, aFloat || bFloat, true
}

func arith(floatOp func(a, b float64) float64, intOp func(a, b int64) int64) Func {
	return func(_ context.Context, args []value.Value) (value.Value, error) {
		af, bf, ai, bi, isFloat, ok := numericPair(args[0], args[1])
		if !ok {
			return value.Value{}, corelang.NewError(corelang.KindTypeError, "expected numeric arguments")
		}
		if isFloat {
			return value.Double(floatOp(af, bf)), nil
		}
		return value.Long(intOp(ai, bi)), nil
	}
}

func divFn(_ context.Context, args []value.Value) (value.Value, error) {
	af, bf, ai, bi, isFloat, ok := numericPair(args[0], args[1])
	if !ok {
		return value.Value{}, corelang.NewError(corelang.KindTypeError, "expected numeric arguments")
	}
	if isFloat {
		if bf == 0 {
			return value.Value{}, corelang.NewError(corelang.KindArgumentError, "division by zero")
		}
		return value.Double(af / bf), nil
	}
	if bi == 0 {
		return value.Value{}, corelang.NewError(corelang.KindArgumentError, "division by zero")
	}
	return value.Long(ai / bi), nil
}

func compareFn(accept func(cmp int) bool) Func {
	return func(_ context.Context, args []value.Value) (value.Value, error) {
		a, b := args[0], args[1]
		if a.Kind() == value.KindText && b.Kind() == value.KindText {
			as, _ := a.AsText()
			bs, _ := b.AsText()
			return value.Bool(accept(strings.Compare(as, bs))), nil
		}
		af, bf, _, _, _, ok := numericPair(a, b)
		if !ok {
			return value.Value{}, corelang.NewError(corelang.KindTypeError, "expected comparable arguments")
		}
		switch {
		case af < bf:
			return value.Bool(accept(-1)), nil
		case af > bf:
			return value.Bool(accept(1)), nil
		default:
			return value.Bool(accept(0)), nil
		}
	}
}

func textConcat(_ context.Context, args []value.Value) (value.Value, error) {
	var b strings.Builder
	for _, a := range args {
		s, ok := a.AsText()
		if !ok {
			return value.Value{}, corelang.NewError(corelang.KindTypeError, "Text.concat: expected Text argument")
		}
		b.WriteString(s)
	}
	return value.Text(b.String()), nil
}

func textLength(_ context.Context, args []value.Value) (value.Value, error) {
	s, ok := args[0].AsText()
	if !ok {
		return value.Value{}, corelang.NewError(corelang.KindTypeError, "Text.length: expected Text argument")
	}
	return value.Int(int32(len([]rune(s)))), nil
}

func textContains(_ context.Context, args []value.Value) (value.Value, error) {
	s, ok1 := args[0].AsText()
	sub, ok2 := args[1].AsText()
	if !ok1 || !ok2 {
		return value.Value{}, corelang.NewError(corelang.KindTypeError, "Text.contains: expected Text arguments")
	}
	return value.Bool(strings.Contains(s, sub)), nil
}

func textRedact(_ context.Context, args []value.Value) (value.Value, error) {
	v := args[0]
	if meta := v.PIIMetaOf(); meta != nil {
		return value.Text(meta.Redacted()), nil
	}
	s, ok := v.AsText()
	if !ok {
		return value.Value{}, corelang.NewError(corelang.KindTypeError, "Text.redact: expected Text argument")
	}
	return value.Text(s), nil
}

func listAppend(_ context.Context, args []value.Value) (value.Value, error) {
	items, ok := args[0].AsList()
	if !ok {
		return value.Value{}, corelang.NewError(corelang.KindTypeError, "List.append: expected List argument")
	}
	out := make([]value.Value, len(items)+1)
	copy(out, items)
	out[len(items)] = args[1]
	return value.List(out), nil
}

func kindIsFn(accept func(value.Kind) bool) Func {
	return func(_ context.Context, args []value.Value) (value.Value, error) {
		return value.Bool(accept(args[0].Kind())), nil
	}
}

func resultUnwrap(_ context.Context, args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Kind() {
	case value.KindOk:
		inner, _ := v.Inner()
		return inner, nil
	case value.KindErr:
		inner, _ := v.Inner()
		return value.Value{}, corelang.NewError(corelang.KindArgumentError, "Result.unwrap: Err(%s)", inner.String())
	default:
		return value.Value{}, corelang.NewError(corelang.KindTypeError, "Result.unwrap: expected Ok or Err")
	}
}

func optionUnwrap(_ context.Context, args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Kind() {
	case value.KindSome:
		inner, _ := v.Inner()
		return inner, nil
	case value.KindNone:
		return value.Value{}, corelang.NewError(corelang.KindArgumentError, "Option.unwrap: None")
	default:
		return value.Value{}, corelang.NewError(corelang.KindTypeError, "Option.unwrap: expected Some or None")
	}
}

func printFn(_ context.Context, args []value.Value) (value.Value, error) {
	fmt.Println(args[0].String())
	return value.Null(), nil
}
