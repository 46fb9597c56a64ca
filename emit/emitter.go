package emit

import "context"

// Emitter receives observability events from the interpreter and the
// workflow scheduler. Implementations must not block evaluation for
// long and must not panic; a misbehaving backend should degrade to
// dropped events rather than interrupt execution.
type Emitter interface {
	Emit(event Event)

	// EmitBatch delivers multiple events at once, preserving order.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until every buffered event has been delivered, or
	// ctx is done.
	Flush(ctx context.Context) error
}
