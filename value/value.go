// Package value implements the runtime's tagged-union Value type: the
// single representation flowing through every frame, environment slot,
// and closure capture in the interpreter.
package value

import (
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates the tagged union. Every Value carries exactly one
// Kind at a time; the interpreter type-switches on it during evaluation
// of If, Match and built-in calls.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindLong
	KindDouble
	KindText
	KindList
	KindMap
	KindRecord
	KindEnum
	KindOk
	KindErr
	KindSome
	KindNone
	KindClosure
	KindPII
	KindTask
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindLong:
		return "Long"
	case KindDouble:
		return "Double"
	case KindText:
		return "Text"
	case KindList:
		return "List"
	case KindMap:
		return "Map"
	case KindRecord:
		return "Record"
	case KindEnum:
		return "Enum"
	case KindOk:
		return "Ok"
	case KindErr:
		return "Err"
	case KindSome:
		return "Some"
	case KindNone:
		return "None"
	case KindClosure:
		return "Closure"
	case KindPII:
		return "PII"
	case KindTask:
		return "Task"
	default:
		return "Unknown"
	}
}

// Value is the interpreter's tagged-union runtime value. It is a plain
// struct rather than an interface so that the common scalar cases (Null,
// Bool, Int, Long, Double) never allocate; the compound cases (List, Map,
// Record, Enum, Ok/Err/Some, Closure, PII, Task) hold a pointer to their
// payload. All payloads are immutable once constructed; `set` overwrites
// a binding's Value, never a Value's payload in place.
type Value struct {
	kind Kind

	b bool
	i int32
	l int64
	d float64
	s string

	list    []Value
	mp      *Map
	record  *Record
	enum    *EnumValue
	inner   *Value // Ok/Err/Some payload, or the wrapped Value of a PII box
	closure *Closure
	pii     *PIIMeta
	taskID  string
}

// Null returns the Null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a Bool value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns a host 32-bit Int value.
func Int(i int32) Value { return Value{kind: KindInt, i: i} }

// Long returns a host 64-bit Long value.
func Long(l int64) Value { return Value{kind: KindLong, l: l} }

// Double returns a host double value.
func Double(d float64) Value { return Value{kind: KindDouble, d: d} }

// Text returns an immutable Text value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// List returns an ordered-sequence value. items is copied.
func List(items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// MapValue returns a Map value wrapping m.
func MapValue(m *Map) Value { return Value{kind: KindMap, mp: m} }

// RecordValue returns a Record value.
func RecordValue(r *Record) Value { return Value{kind: KindRecord, record: r} }

// EnumVal returns an EnumValue value.
func EnumVal(e *EnumValue) Value { return Value{kind: KindEnum, enum: e} }

// Ok wraps v as the Ok(v) tagged value.
func Ok(v Value) Value { inner := v; return Value{kind: KindOk, inner: &inner} }

// Err wraps v as the Err(v) tagged value.
func Err(v Value) Value { inner := v; return Value{kind: KindErr, inner: &inner} }

// Some wraps v as the Some(v) tagged value.
func Some(v Value) Value { inner := v; return Value{kind: KindSome, inner: &inner} }

// None returns the None value.
func None() Value { return Value{kind: KindNone} }

// ClosureValue returns a Closure value.
func ClosureValue(c *Closure) Value { return Value{kind: KindClosure, closure: c} }

// TaskHandleValue returns a TaskHandle value referencing the named task.
func TaskHandleValue(id string) Value { return Value{kind: KindTask, taskID: id} }

// Kind reports the value's tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload and whether v is a Bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the int32 payload and whether v is an Int.
func (v Value) AsInt() (int32, bool) { return v.i, v.kind == KindInt }

// AsLong returns the int64 payload and whether v is a Long.
func (v Value) AsLong() (int64, bool) { return v.l, v.kind == KindLong }

// AsDouble returns the float64 payload and whether v is a Double.
func (v Value) AsDouble() (float64, bool) { return v.d, v.kind == KindDouble }

// AsText returns the string payload and whether v is Text.
func (v Value) AsText() (string, bool) { return v.s, v.kind == KindText }

// AsList returns the element slice and whether v is a List. The returned
// slice is the value's own backing array; callers must not mutate it.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// AsMap returns the Map payload and whether v is a Map.
func (v Value) AsMap() (*Map, bool) { return v.mp, v.kind == KindMap }

// AsRecord returns the Record payload and whether v is a Record.
func (v Value) AsRecord() (*Record, bool) { return v.record, v.kind == KindRecord }

// AsEnum returns the EnumValue payload and whether v is an Enum.
func (v Value) AsEnum() (*EnumValue, bool) { return v.enum, v.kind == KindEnum }

// AsClosure returns the Closure payload and whether v is a Closure.
func (v Value) AsClosure() (*Closure, bool) { return v.closure, v.kind == KindClosure }

// TaskID returns the referenced task id and whether v is a TaskHandle.
func (v Value) TaskID() (string, bool) { return v.taskID, v.kind == KindTask }

// Inner returns the wrapped value of Ok, Err, Some or PII, and whether v
// is one of those kinds.
func (v Value) Inner() (Value, bool) {
	if v.inner == nil {
		return Value{}, false
	}
	return *v.inner, true
}

// IsNumeric reports whether v is Int, Long or Double.
func (v Value) IsNumeric() bool {
	return v.kind == KindInt || v.kind == KindLong || v.kind == KindDouble
}

// Equal reports deep structural equality, used by the `eq` built-in and
// by integer-literal match patterns.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		// Int/Long/Double compare across numeric kinds for `eq`.
		if a.IsNumeric() && b.IsNumeric() {
			return numericEqual(a, b)
		}
		return false
	}
	switch a.kind {
	case KindNull, KindNone:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindLong:
		return a.l == b.l
	case KindDouble:
		return a.d == b.d
	case KindText:
		return a.s == b.s
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return a.mp.Equal(b.mp)
	case KindRecord:
		return a.record.TypeName == b.record.TypeName && a.record.Fields.Equal(b.record.Fields)
	case KindEnum:
		return a.enum.TypeName == b.enum.TypeName && a.enum.Variant == b.enum.Variant
	case KindOk, KindErr, KindSome:
		return Equal(*a.inner, *b.inner)
	case KindTask:
		return a.taskID == b.taskID
	default:
		return false
	}
}

func numericEqual(a, b Value) bool {
	af, _ := toFloat(a)
	bf, _ := toFloat(b)
	return af == bf
}

func toFloat(v Value) (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindLong:
		return float64(v.l), true
	case KindDouble:
		return v.d, true
	default:
		return 0, false
	}
}

// String renders a debug representation, used by the print built-in
// and by error messages (Text.concat rejects non-Text arguments rather
// than coercing them).
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindLong:
		return fmt.Sprintf("%d", v.l)
	case KindDouble:
		return fmt.Sprintf("%g", v.d)
	case KindText:
		return v.s
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		return v.mp.String()
	case KindRecord:
		return v.record.String()
	case KindEnum:
		return v.enum.TypeName + "." + v.enum.Variant
	case KindOk:
		return "Ok(" + v.inner.String() + ")"
	case KindErr:
		return "Err(" + v.inner.String() + ")"
	case KindSome:
		return "Some(" + v.inner.String() + ")"
	case KindNone:
		return "None"
	case KindClosure:
		return "<closure>"
	case KindPII:
		return v.pii.Redacted()
	case KindTask:
		return "<task:" + v.taskID + ">"
	default:
		return "<unknown>"
	}
}

// Map is an ordered, string-keyed collection preserving insertion order,
// matching spec's Map value (§3: "string-keyed, insertion-ordered").
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap returns an empty ordered map.
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Set inserts or overwrites key, appending it to the key order on first
// insertion only.
func (m *Map) Set(key string, v Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value for key and whether it is present.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns keys in insertion order. The returned slice must not be
// mutated by callers.
func (m *Map) Keys() []string { return m.keys }

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.keys) }

// Equal reports whether two maps hold the same key/value pairs,
// irrespective of insertion order.
func (m *Map) Equal(other *Map) bool {
	if m == nil || other == nil {
		return m == other
	}
	if len(m.keys) != len(other.keys) {
		return false
	}
	for _, k := range m.keys {
		ov, ok := other.values[k]
		if !ok || !Equal(m.values[k], ov) {
			return false
		}
	}
	return true
}

// String renders entries in insertion order.
func (m *Map) String() string {
	parts := make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		parts = append(parts, k+": "+m.values[k].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Record is a named, ordered-field aggregate produced by `construct` and
// matched by constructor patterns.
type Record struct {
	TypeName string
	Fields   *Map
}

// String renders TypeName{field: value, ...} in declaration order.
func (r *Record) String() string {
	return r.TypeName + r.Fields.String()
}

// EnumValue names a variant of a declared Enum type.
type EnumValue struct {
	TypeName string
	Variant  string
}

// PIIMeta carries the tag set and normalized sensitivity level attached
// to a PII-wrapped value.
type PIIMeta struct {
	Tags        map[string]struct{}
	Sensitivity string // normalized: upper-case, trimmed
}

// Redacted renders the PII redaction form from spec §6: "<PII>" when
// tagless, else "<PII:tag1,tag2>" with tags in sorted order for a
// deterministic rendering.
func (m *PIIMeta) Redacted() string {
	if len(m.Tags) == 0 {
		return "<PII>"
	}
	tags := make([]string, 0, len(m.Tags))
	for t := range m.Tags {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return "<PII:" + strings.Join(tags, ",") + ">"
}

// NormalizeSensitivity upper-cases and trims a free-form sensitivity
// label, per spec §6.
func NormalizeSensitivity(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// PII wraps v with a tag category and sensitivity level. Wrapping an
// already-PII value merges tag sets and keeps the lexicographically
// greater (higher) sensitivity, per spec §8's idempotence/merge
// invariant.
func PII(v Value, category string, sensitivity string) Value {
	sensitivity = NormalizeSensitivity(sensitivity)
	if v.kind == KindPII {
		merged := &PIIMeta{
			Tags:        mergeTags(v.pii.Tags, category),
			Sensitivity: maxLex(v.pii.Sensitivity, sensitivity),
		}
		inner := *v.inner
		return Value{kind: KindPII, inner: &inner, pii: merged}
	}
	tags := map[string]struct{}{}
	if category != "" {
		tags[category] = struct{}{}
	}
	inner := v
	return Value{kind: KindPII, inner: &inner, pii: &PIIMeta{Tags: tags, Sensitivity: sensitivity}}
}

func mergeTags(existing map[string]struct{}, add string) map[string]struct{} {
	out := make(map[string]struct{}, len(existing)+1)
	for t := range existing {
		out[t] = struct{}{}
	}
	if add != "" {
		out[add] = struct{}{}
	}
	return out
}

func maxLex(a, b string) string {
	if a >= b {
		return a
	}
	return b
}

// PIIMetaOf returns the PII metadata of v, or nil if v is not a PII
// value.
func (v Value) PIIMetaOf() *PIIMeta {
	if v.kind != KindPII {
		return nil
	}
	return v.pii
}
