package workflow

import (
	corelang "github.com/dshills/corelang-go"
)

// Graph is the dependency DAG backing a single `workflow` statement
// (component H): one Task per declared step, plus adjacency from a
// step to the steps that depend on it. It owns cycle detection and
// ready-set tracking; the Scheduler (component I) consumes it to decide
// which tasks to dispatch.
type Graph struct {
	tasks      map[string]*Task
	order      []string // declaration order, for deterministic ready-set iteration
	dependents map[string][]string
	remaining  map[string]int
}

// NewGraph builds a Graph from a set of tasks whose Deps name other
// tasks in the same set. It returns an UnknownTaskError if a
// dependency names a step not present in tasks, and a CycleError if
// the dependency relation is not acyclic.
func NewGraph(tasks []*Task) (*Graph, error) {
	g := &Graph{
		tasks:      make(map[string]*Task, len(tasks)),
		dependents: make(map[string][]string, len(tasks)),
		remaining:  make(map[string]int, len(tasks)),
	}
	for _, t := range tasks {
		if _, dup := g.tasks[t.ID]; dup {
			return nil, corelang.NewError(corelang.KindArgumentError, "duplicate step name %q", t.ID)
		}
		g.tasks[t.ID] = t
		g.order = append(g.order, t.ID)
	}
	for _, t := range tasks {
		for _, dep := range t.Deps {
			if _, ok := g.tasks[dep]; !ok {
				return nil, corelang.NewError(corelang.KindUnknownTaskError, "step %q depends on unknown step %q", t.ID, dep)
			}
			g.dependents[dep] = append(g.dependents[dep], t.ID)
		}
		g.remaining[t.ID] = len(t.Deps)
	}
	if cyc, ok := g.findCycle(); ok {
		return nil, corelang.NewError(corelang.KindCycleError, "dependency cycle: %v", cyc)
	}
	return g, nil
}

func (g *Graph) findCycle() ([]string, bool) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.order))
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, dep := range g.tasks[id].Deps {
			switch color[dep] {
			case white:
				if visit(dep) {
					return true
				}
			case gray:
				cycle = append([]string(nil), stack...)
				cycle = append(cycle, dep)
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, id := range g.order {
		if color[id] == white {
			if visit(id) {
				return cycle, true
			}
		}
	}
	return nil, false
}

// Ready returns the IDs (in declaration order) of every Pending task
// with zero remaining dependencies, transitioning each to Ready.
func (g *Graph) Ready() []string {
	var ready []string
	for _, id := range g.order {
		t := g.tasks[id]
		if t.State() == Pending && g.remaining[id] == 0 {
			t.setState(Ready)
			ready = append(ready, id)
		}
	}
	return ready
}

// MarkDependentsCancelled transitions every task that (transitively)
// depends on id to Cancelled, implementing the failure-cascade
// invariant: a failed step cancels everything downstream of it.
func (g *Graph) MarkDependentsCancelled(id string) []string {
	var cancelled []string
	var walk func(string)
	walk = func(cur string) {
		for _, dep := range g.dependents[cur] {
			t := g.tasks[dep]
			if t.State().Terminal() {
				continue
			}
			t.setState(Cancelled)
			cancelled = append(cancelled, dep)
			walk(dep)
		}
	}
	walk(id)
	return cancelled
}

// Decrement reduces the remaining-dependency counter of every direct
// dependent of id by one, called once id completes successfully.
func (g *Graph) Decrement(id string) {
	for _, dep := range g.dependents[id] {
		g.remaining[dep]--
	}
}

// Task returns the task registered under id.
func (g *Graph) Task(id string) *Task { return g.tasks[id] }

// Order returns step IDs in declaration order.
func (g *Graph) Order() []string { return g.order }

// AllTerminal reports whether every task has reached a terminal state.
func (g *Graph) AllTerminal() bool {
	for _, id := range g.order {
		if !g.tasks[id].State().Terminal() {
			return false
		}
	}
	return true
}
