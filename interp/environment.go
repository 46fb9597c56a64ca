package interp

import (
	corelang "github.com/dshills/corelang-go"
	"github.com/dshills/corelang-go/value"
)

// Environment is a lexically chained binding scope, used for names
// that never got a frame slot: scope-local lets, and the outer
// bindings a workflow or scope block layers over its enclosing frame.
// Bindings are pointer cells so two-pass construction (reserve every
// mutually-recursive function's cell, then fill each in once its
// closure value exists, per spec §9) can hand out a cell before its
// value is known.
type Environment struct {
	parent *Environment
	vars   map[string]*value.Value
}

// NewEnvironment returns a child scope of parent (nil for a root
// environment).
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{parent: parent, vars: make(map[string]*value.Value)}
}

// Reserve returns name's pointer cell in this environment, creating an
// (initially Null) one if this is the first reservation.
func (e *Environment) Reserve(name string) *value.Value {
	if cell, ok := e.vars[name]; ok {
		return cell
	}
	cell := new(value.Value)
	*cell = value.Null()
	e.vars[name] = cell
	return cell
}

// Define binds name to v in this environment.
func (e *Environment) Define(name string, v value.Value) {
	*e.Reserve(name) = v
}

func (e *Environment) lookupCell(name string) (*value.Value, bool) {
	for env := e; env != nil; env = env.parent {
		if cell, ok := env.vars[name]; ok {
			return cell, true
		}
	}
	return nil, false
}

// Lookup returns name's current value by walking the parent chain.
func (e *Environment) Lookup(name string) (value.Value, bool) {
	cell, ok := e.lookupCell(name)
	if !ok {
		return value.Value{}, false
	}
	return *cell, true
}

// Set overwrites the binding for name in whichever environment along
// the chain owns it. Returns an UnboundName error if no environment
// reachable from e owns name.
func (e *Environment) Set(name string, v value.Value) error {
	cell, ok := e.lookupCell(name)
	if !ok {
		return corelang.NewError(corelang.KindUnboundName, "%s", name)
	}
	*cell = v
	return nil
}

// Publish implements workflow.Publisher: a completed task's (or
// workflow step's) result becomes a name binding in the environment
// that owns the enclosing `start`/`workflow` statement.
func (e *Environment) Publish(name string, v value.Value) {
	e.Define(name, v)
}
