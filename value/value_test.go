package value_test

import (
	"testing"

	"github.com/dshills/corelang-go/value"
)

func TestEqual(t *testing.T) {
	t.Run("scalars compare by kind and payload", func(t *testing.T) {
		if !value.Equal(value.Int(3), value.Int(3)) {
			t.Fatalf("expected equal ints")
		}
		if value.Equal(value.Int(3), value.Int(4)) {
			t.Fatalf("did not expect unequal ints to compare equal")
		}
		if value.Equal(value.Text("a"), value.Bool(true)) {
			t.Fatalf("did not expect cross-kind equality for non-numeric kinds")
		}
	})

	t.Run("numeric kinds compare across Int/Long/Double", func(t *testing.T) {
		if !value.Equal(value.Int(3), value.Long(3)) {
			t.Fatalf("expected Int(3) == Long(3)")
		}
		if !value.Equal(value.Int(3), value.Double(3.0)) {
			t.Fatalf("expected Int(3) == Double(3.0)")
		}
		if value.Equal(value.Int(3), value.Double(3.5)) {
			t.Fatalf("did not expect Int(3) == Double(3.5)")
		}
	})

	t.Run("lists compare element-wise", func(t *testing.T) {
		a := value.List([]value.Value{value.Int(1), value.Text("x")})
		b := value.List([]value.Value{value.Int(1), value.Text("x")})
		c := value.List([]value.Value{value.Int(1), value.Text("y")})
		if !value.Equal(a, b) {
			t.Fatalf("expected identical lists to be equal")
		}
		if value.Equal(a, c) {
			t.Fatalf("did not expect differing lists to be equal")
		}
	})

	t.Run("maps compare irrespective of insertion order", func(t *testing.T) {
		m1 := value.NewMap()
		m1.Set("a", value.Int(1))
		m1.Set("b", value.Int(2))
		m2 := value.NewMap()
		m2.Set("b", value.Int(2))
		m2.Set("a", value.Int(1))
		if !value.Equal(value.MapValue(m1), value.MapValue(m2)) {
			t.Fatalf("expected maps with the same entries to be equal regardless of order")
		}
	})

	t.Run("Ok/Err/Some compare their inner value", func(t *testing.T) {
		if !value.Equal(value.Ok(value.Int(1)), value.Ok(value.Int(1))) {
			t.Fatalf("expected Ok(1) == Ok(1)")
		}
		if value.Equal(value.Ok(value.Int(1)), value.Err(value.Int(1))) {
			t.Fatalf("did not expect Ok(1) == Err(1)")
		}
	})
}

func TestMapPreservesInsertionOrder(t *testing.T) {
	m := value.NewMap()
	m.Set("z", value.Int(1))
	m.Set("a", value.Int(2))
	m.Set("z", value.Int(3)) // overwrite must not move it in key order

	keys := m.Keys()
	if len(keys) != 2 || keys[0] != "z" || keys[1] != "a" {
		t.Fatalf("expected key order [z a], got %v", keys)
	}
	v, ok := m.Get("z")
	got, _ := v.AsInt()
	if !ok || got != 3 {
		t.Fatalf("expected overwritten value 3, got %v (ok=%v)", got, ok)
	}
}

func TestPIIWrapping(t *testing.T) {
	t.Run("redacts tagless values generically", func(t *testing.T) {
		v := value.PII(value.Text("secret"), "", "HIGH")
		if v.String() != "<PII>" {
			t.Fatalf("expected <PII>, got %s", v.String())
		}
	})

	t.Run("redacts with sorted tags", func(t *testing.T) {
		v := value.PII(value.Text("secret"), "ssn", "HIGH")
		if v.String() != "<PII:ssn>" {
			t.Fatalf("expected <PII:ssn>, got %s", v.String())
		}
	})

	t.Run("merges tags and keeps the higher sensitivity on rewrap", func(t *testing.T) {
		v := value.PII(value.Text("secret"), "ssn", "LOW")
		v = value.PII(v, "email", "HIGH")

		meta := v.PIIMetaOf()
		if meta == nil {
			t.Fatalf("expected PII metadata")
		}
		if _, ok := meta.Tags["ssn"]; !ok {
			t.Fatalf("expected ssn tag to survive rewrap")
		}
		if _, ok := meta.Tags["email"]; !ok {
			t.Fatalf("expected email tag to be added")
		}
		// The lexicographically greater level wins: "LOW" sorts after
		// "HIGH", so LOW stays.
		if meta.Sensitivity != "LOW" {
			t.Fatalf("expected sensitivity to stay LOW, got %s", meta.Sensitivity)
		}
	})

	t.Run("normalizes sensitivity casing and whitespace", func(t *testing.T) {
		if got := value.NormalizeSensitivity("  low "); got != "LOW" {
			t.Fatalf("expected LOW, got %q", got)
		}
	})
}

func TestInnerUnwrapsTaggedValues(t *testing.T) {
	ok := value.Ok(value.Int(5))
	inner, wrapped := ok.Inner()
	if !wrapped {
		t.Fatalf("expected Ok to report as wrapped")
	}
	n, _ := inner.AsInt()
	if n != 5 {
		t.Fatalf("expected inner value 5, got %d", n)
	}

	if _, wrapped := value.Int(5).Inner(); wrapped {
		t.Fatalf("a plain Int must not report as wrapped")
	}
}
