// Package emit is the observability stack (part of the ambient
// logging concern): an Event record plus pluggable Emitter backends,
// adapted from the teacher's graph/emit package to this domain's
// events. corelang.Load feeds it workflow step lifecycle events only;
// loading, calls and effect checks emit nothing.
package emit

// Event is a single observability record. RunID identifies the
// top-level execution (a fresh one per ir.Module run); Subject names
// the function, task or workflow step the event concerns, empty for
// module-level events.
type Event struct {
	RunID   string
	Subject string
	Kind    string // e.g. "step_started", "step_failed", "step_compensated"
	Message string
	Meta    map[string]any
}
