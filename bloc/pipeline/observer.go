package pipeline

// Operation names reported to observers and logs.
const (
	OperationFilter    = "filter"
	OperationQuery     = "query"
	OperationAggregate = "aggregate"
)

// Observer is notified of each invocation. Implementations must be safe for
// concurrent use.
type Observer interface {
	// Invoked is called once per invocation, before validation.
	Invoked(operation string)
	// Rejected is called when validation fails.
	Rejected(operation string)
	// Emitted is called with the number of records produced. Streamed
	// results report one record at a time as they are pulled.
	Emitted(operation string, n int)
}

type nopObserver struct{}

func (nopObserver) Invoked(string)      {}
func (nopObserver) Rejected(string)     {}
func (nopObserver) Emitted(string, int) {}
