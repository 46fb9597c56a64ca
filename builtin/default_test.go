package builtin_test

import (
	"context"
	"testing"

	"github.com/dshills/corelang-go/builtin"
	"github.com/dshills/corelang-go/effect"
	"github.com/dshills/corelang-go/value"
)

func call(t *testing.T, reg *builtin.Registry, name string, args ...value.Value) value.Value {
	t.Helper()
	r, ok := reg.Lookup(name)
	if !ok {
		t.Fatalf("%s not registered", name)
	}
	if err := r.CheckArity(len(args)); err != nil {
		t.Fatalf("unexpected arity error: %v", err)
	}
	v, err := r.Fn(context.Background(), args)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", name, err)
	}
	return v
}

func TestArithmeticPromotesToLongUnlessFloatInvolved(t *testing.T) {
	reg := builtin.DefaultRegistry()

	v := call(t, reg, "add", value.Int(2), value.Int(3))
	if v.Kind() != value.KindLong {
		t.Fatalf("expected Long result for two Ints, got %s", v.Kind())
	}
	n, _ := v.AsLong()
	if n != 5 {
		t.Fatalf("expected 5, got %d", n)
	}

	v = call(t, reg, "add", value.Int(2), value.Double(1.5))
	if v.Kind() != value.KindDouble {
		t.Fatalf("expected Double result when a Double operand is present, got %s", v.Kind())
	}
	d, _ := v.AsDouble()
	if d != 3.5 {
		t.Fatalf("expected 3.5, got %v", d)
	}
}

func TestDivByZeroIsArgumentError(t *testing.T) {
	reg := builtin.DefaultRegistry()
	r, _ := reg.Lookup("div")
	_, err := r.Fn(context.Background(), []value.Value{value.Int(1), value.Int(0)})
	if err == nil {
		t.Fatalf("expected a division-by-zero error")
	}
}

func TestComparisonWorksOnTextAndNumeric(t *testing.T) {
	reg := builtin.DefaultRegistry()

	v := call(t, reg, "lt", value.Text("a"), value.Text("b"))
	b, _ := v.AsBool()
	if !b {
		t.Fatalf("expected \"a\" < \"b\"")
	}

	v = call(t, reg, "ge", value.Int(5), value.Int(5))
	b, _ = v.AsBool()
	if !b {
		t.Fatalf("expected 5 >= 5")
	}
}

func TestTextBuiltins(t *testing.T) {
	reg := builtin.DefaultRegistry()

	v := call(t, reg, "Text.concat", value.Text("foo"), value.Text("bar"))
	s, _ := v.AsText()
	if s != "foobar" {
		t.Fatalf("expected foobar, got %s", s)
	}

	v = call(t, reg, "Text.length", value.Text("hello"))
	n, _ := v.AsInt()
	if n != 5 {
		t.Fatalf("expected length 5, got %d", n)
	}

	v = call(t, reg, "Text.contains", value.Text("hello world"), value.Text("wor"))
	b, _ := v.AsBool()
	if !b {
		t.Fatalf("expected Text.contains to find the substring")
	}
}

func TestTextRedactPassesThroughPlainTextAndRedactsPII(t *testing.T) {
	reg := builtin.DefaultRegistry()

	v := call(t, reg, "Text.redact", value.Text("plain"))
	s, _ := v.AsText()
	if s != "plain" {
		t.Fatalf("expected plain text unchanged, got %s", s)
	}

	pii := value.PII(value.Text("secret"), "ssn", "HIGH")
	v = call(t, reg, "Text.redact", pii)
	s, _ = v.AsText()
	if s != "<PII:ssn>" {
		t.Fatalf("expected <PII:ssn>, got %s", s)
	}
}

func TestListAppendDoesNotMutateOriginal(t *testing.T) {
	reg := builtin.DefaultRegistry()
	original := value.List([]value.Value{value.Int(1)})

	v := call(t, reg, "List.append", original, value.Int(2))
	items, _ := v.AsList()
	if len(items) != 2 {
		t.Fatalf("expected appended list to have 2 elements, got %d", len(items))
	}
	origItems, _ := original.AsList()
	if len(origItems) != 1 {
		t.Fatalf("expected the original list to remain length 1, got %d", len(origItems))
	}
}

func TestResultAndOptionHelpers(t *testing.T) {
	reg := builtin.DefaultRegistry()

	v := call(t, reg, "Result.isOk", value.Ok(value.Int(1)))
	b, _ := v.AsBool()
	if !b {
		t.Fatalf("expected Result.isOk(Ok(1)) == true")
	}

	v = call(t, reg, "Result.unwrap", value.Ok(value.Int(9)))
	n, _ := v.AsInt()
	if n != 9 {
		t.Fatalf("expected unwrapped 9, got %d", n)
	}

	r, _ := reg.Lookup("Result.unwrap")
	if _, err := r.Fn(context.Background(), []value.Value{value.Err(value.Text("boom"))}); err == nil {
		t.Fatalf("expected Result.unwrap(Err(...)) to error")
	}

	v = call(t, reg, "Option.isNone", value.None())
	b, _ = v.AsBool()
	if !b {
		t.Fatalf("expected Option.isNone(None) == true")
	}
}

func TestPrintDeclaresIOEffect(t *testing.T) {
	reg := builtin.DefaultRegistry()
	r, ok := reg.Lookup("print")
	if !ok {
		t.Fatalf("expected print to be registered")
	}
	if len(r.Effects) != 1 || r.Effects[0] != effect.IO {
		t.Fatalf("expected print to declare the IO effect, got %v", r.Effects)
	}
}

func TestCheckArityRejectsWrongCount(t *testing.T) {
	reg := builtin.DefaultRegistry()
	r, _ := reg.Lookup("add")
	if err := r.CheckArity(1); err == nil {
		t.Fatalf("expected an ArityError for add called with 1 argument")
	}
}

func TestVarArityAcceptsAnyCount(t *testing.T) {
	reg := builtin.DefaultRegistry()
	r, _ := reg.Lookup("Text.concat")
	if err := r.CheckArity(0); err != nil {
		t.Fatalf("expected Text.concat to accept zero arguments: %v", err)
	}
	if err := r.CheckArity(5); err != nil {
		t.Fatalf("expected Text.concat to accept five arguments: %v", err)
	}
}
