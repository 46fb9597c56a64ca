// Package builtin is the host built-in registry (spec §6): the open
// set of host-provided functions a Core IR module can call by name,
// each declaring the effects it requires before it may run.
package builtin

import (
	"context"

	corelang "github.com/dshills/corelang-go"
	"github.com/dshills/corelang-go/value"
)

// Func is a built-in's host implementation.
type Func func(ctx context.Context, args []value.Value) (value.Value, error)

// Registration describes one built-in: its arity contract and the
// effects the caller must hold before it runs.
type Registration struct {
	Name     string
	Arity    int  // ignored when VarArity is true
	VarArity bool // true for a built-in accepting any number of arguments
	Effects  []string
	Fn       Func
}

// Registry is the open set of built-ins a loaded module may call by
// name; the core ships DefaultRegistry and an embedder may register
// more before loading a module.
type Registry struct {
	entries map[string]Registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Registration)}
}

// Register adds or replaces the built-in named reg.Name.
func (r *Registry) Register(reg Registration) {
	r.entries[reg.Name] = reg
}

// Lookup returns the registration for name, if any.
func (r *Registry) Lookup(name string) (Registration, bool) {
	reg, ok := r.entries[name]
	return reg, ok
}

// CheckArity returns an ArityError if got does not satisfy reg's arity
// contract.
func (reg Registration) CheckArity(got int) error {
	if reg.VarArity {
		return nil
	}
	if got != reg.Arity {
		return corelang.NewError(corelang.KindArityError, "%s: expected %d argument(s), got %d", reg.Name, reg.Arity, got)
	}
	return nil
}
