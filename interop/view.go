// Package interop provides read-only adapters an embedding host uses
// to inspect values returned across the language boundary, without
// exposing value's internal representation or letting a host mutate
// interpreter state out from under it.
package interop

import "github.com/dshills/corelang-go/value"

// ListView is a read-only view over a value.Value of kind List.
type ListView struct {
	items []value.Value
}

// NewListView wraps v, or reports ok=false if v is not a List.
func NewListView(v value.Value) (ListView, bool) {
	items, ok := v.AsList()
	if !ok {
		return ListView{}, false
	}
	return ListView{items: items}, true
}

func (l ListView) Len() int { return len(l.items) }

// At returns the element at index i, or the zero Value and false if i
// is out of range.
func (l ListView) At(i int) (value.Value, bool) {
	if i < 0 || i >= len(l.items) {
		return value.Value{}, false
	}
	return l.items[i], true
}

// Each calls fn for every element in order, stopping early if fn
// returns false.
func (l ListView) Each(fn func(i int, v value.Value) bool) {
	for i, v := range l.items {
		if !fn(i, v) {
			return
		}
	}
}

// MapView is a read-only view over a value.Value of kind Map,
// preserving the insertion order of value.Map.
type MapView struct {
	m *value.Map
}

// NewMapView wraps v, or reports ok=false if v is not a Map.
func NewMapView(v value.Value) (MapView, bool) {
	m, ok := v.AsMap()
	if !ok {
		return MapView{}, false
	}
	return MapView{m: m}, true
}

func (m MapView) Len() int { return m.m.Len() }

func (m MapView) Keys() []string { return m.m.Keys() }

func (m MapView) Get(key string) (value.Value, bool) { return m.m.Get(key) }

// Each calls fn for every key in insertion order, stopping early if fn
// returns false.
func (m MapView) Each(fn func(key string, v value.Value) bool) {
	for _, k := range m.m.Keys() {
		v, _ := m.m.Get(k)
		if !fn(k, v) {
			return
		}
	}
}

// RecordView is a read-only view over a value.Value of kind Record.
type RecordView struct {
	typeName string
	fields   *value.Map
}

// NewRecordView wraps v, or reports ok=false if v is not a Record.
func NewRecordView(v value.Value) (RecordView, bool) {
	r, ok := v.AsRecord()
	if !ok {
		return RecordView{}, false
	}
	return RecordView{typeName: r.TypeName, fields: r.Fields}, true
}

func (r RecordView) TypeName() string { return r.typeName }

func (r RecordView) Field(name string) (value.Value, bool) { return r.fields.Get(name) }

func (r RecordView) FieldNames() []string { return r.fields.Keys() }
