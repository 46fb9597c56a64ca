package interop_test

import (
	"testing"

	"github.com/dshills/corelang-go/interop"
	"github.com/dshills/corelang-go/value"
)

func TestListViewWrapsAndRejectsNonList(t *testing.T) {
	lv, ok := interop.NewListView(value.List([]value.Value{value.Int(1), value.Int(2), value.Int(3)}))
	if !ok {
		t.Fatalf("expected a List value to wrap successfully")
	}
	if lv.Len() != 3 {
		t.Fatalf("expected length 3, got %d", lv.Len())
	}
	v, ok := lv.At(1)
	if !ok {
		t.Fatalf("expected index 1 to be in range")
	}
	n, _ := v.AsInt()
	if n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
	if _, ok := lv.At(10); ok {
		t.Fatalf("expected an out-of-range index to report false")
	}

	if _, ok := interop.NewListView(value.Int(1)); ok {
		t.Fatalf("expected a non-List value to fail wrapping")
	}
}

func TestListViewEachStopsEarly(t *testing.T) {
	lv, _ := interop.NewListView(value.List([]value.Value{value.Int(1), value.Int(2), value.Int(3)}))
	var seen []int32
	lv.Each(func(i int, v value.Value) bool {
		n, _ := v.AsInt()
		seen = append(seen, n)
		return n != 2
	})
	if len(seen) != 2 {
		t.Fatalf("expected iteration to stop after the second element, got %v", seen)
	}
}

func TestMapViewPreservesInsertionOrder(t *testing.T) {
	m := value.NewMap()
	m.Set("z", value.Int(1))
	m.Set("a", value.Int(2))

	mv, ok := interop.NewMapView(value.MapValue(m))
	if !ok {
		t.Fatalf("expected a Map value to wrap successfully")
	}
	keys := mv.Keys()
	if len(keys) != 2 || keys[0] != "z" || keys[1] != "a" {
		t.Fatalf("expected insertion order [z a], got %v", keys)
	}
	v, ok := mv.Get("a")
	if !ok {
		t.Fatalf("expected key a to be present")
	}
	n, _ := v.AsInt()
	if n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
}

func TestRecordViewExposesFields(t *testing.T) {
	fields := value.NewMap()
	fields.Set("name", value.Text("ada"))
	fields.Set("age", value.Int(36))
	rv, ok := interop.NewRecordView(value.RecordValue(&value.Record{TypeName: "Person", Fields: fields}))
	if !ok {
		t.Fatalf("expected a Record value to wrap successfully")
	}
	if rv.TypeName() != "Person" {
		t.Fatalf("expected TypeName Person, got %s", rv.TypeName())
	}
	v, ok := rv.Field("name")
	if !ok {
		t.Fatalf("expected field name to be present")
	}
	s, _ := v.AsText()
	if s != "ada" {
		t.Fatalf("expected ada, got %s", s)
	}
	if _, ok := rv.Field("ghost"); ok {
		t.Fatalf("expected an unknown field to report false")
	}
}
