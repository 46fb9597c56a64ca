package workflow

import "sync"

// Analyzer is the purity analyzer (component K): on each closure
// creation it records, keyed by call-target name, whether the closure
// declared an empty required-effects set. Consumers query by
// call-target to decide whether concurrent invocation of that target
// is safe (spec §4.5); the analyzer is advisory and never
// parallelizes anything itself.
type Analyzer struct {
	mu        sync.Mutex
	total     int
	pure      int
	byTarget  map[string]*targetCount
}

type targetCount struct {
	total, pure int
}

// NewAnalyzer returns an empty Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{byTarget: make(map[string]*targetCount)}
}

// RecordClosure records one closure's purity under the given
// call-target name (LambdaNode passes its FuncTarget's name, which the
// loader sets to "<enclosing function>.<lambda>").
func (a *Analyzer) RecordClosure(target string, pure bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total++
	if pure {
		a.pure++
	}
	tc, ok := a.byTarget[target]
	if !ok {
		tc = &targetCount{}
		a.byTarget[target] = tc
	}
	tc.total++
	if pure {
		tc.pure++
	}
}

// Report is a point-in-time snapshot of recorded purity.
type Report struct {
	Total int
	Pure  int
}

// IsPure reports whether every closure recorded so far under target
// was pure. An unrecognized target reports false.
func (a *Analyzer) IsPure(target string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	tc, ok := a.byTarget[target]
	return ok && tc.total > 0 && tc.pure == tc.total
}

// ReportByTarget returns, for every call-target seen so far, whether
// every closure recorded under it was pure.
func (a *Analyzer) ReportByTarget() map[string]bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]bool, len(a.byTarget))
	for target, tc := range a.byTarget {
		out[target] = tc.total > 0 && tc.pure == tc.total
	}
	return out
}

// Snapshot returns the current aggregate totals across every target.
func (a *Analyzer) Snapshot() Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Report{Total: a.total, Pure: a.pure}
}
