package bus

import "time"

// Event is one workflow signal. Kind is dot-namespaced by the publishing
// service ("profile.", "event.", "chat.", "session."); Payload carries the
// ids the observer needs to react.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
