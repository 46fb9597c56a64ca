// Package interp is the tree-walking interpreter: the Loader builds an
// immutable Node tree from an ir.Module (component C), resolving names
// to either frame slots or lexically chained Environment cells at load
// time, and Eval walks that tree against a per-call Frame.
package interp

import "github.com/dshills/corelang-go/value"

// SymbolTable maps every name reachable from a function's frame —
// parameters, then let-declared locals recursed through if/match/
// workflow bodies but not through inner scope blocks (spec §4) — to a
// stable slot index, built once by the Loader before the Node tree for
// that function exists. Names declared only inside a scope block never
// get a slot; they resolve dynamically through Environment instead.
type SymbolTable struct {
	slots map[string]int
	order []string
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{slots: make(map[string]int)}
}

// Reserve returns name's slot index, allocating the next free index the
// first time name is seen.
func (st *SymbolTable) Reserve(name string) int {
	if idx, ok := st.slots[name]; ok {
		return idx
	}
	idx := len(st.order)
	st.slots[name] = idx
	st.order = append(st.order, name)
	return idx
}

// Lookup reports whether name has a reserved slot.
func (st *SymbolTable) Lookup(name string) (int, bool) {
	idx, ok := st.slots[name]
	return idx, ok
}

// Size is the number of slots a Frame for this function needs.
func (st *SymbolTable) Size() int { return len(st.order) }

// Frame is one function activation's indexed local storage: parameter
// and let-bound-local values live here by slot index rather than by
// name lookup, the fast path the interpreter prefers whenever a name's
// binding site is statically known.
type Frame struct {
	Slots []value.Value
}

// NewFrame allocates a Frame with size slots, all Null.
func NewFrame(size int) *Frame {
	f := &Frame{Slots: make([]value.Value, size)}
	for i := range f.Slots {
		f.Slots[i] = value.Null()
	}
	return f
}
