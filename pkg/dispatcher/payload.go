package dispatcher

import (
	"fmt"

	"github.com/google/uuid"
)

// Payload is the message handed to every callback during a broadcast.
//
// The dispatcher never interprets Store, Event or Options. They are routing
// data for the callbacks.
type Payload struct {
	// ID correlates a broadcast across logs, traces and the devtools stream.
	// Dispatch assigns a new UUID when it is empty.
	ID string `json:"id"`

	// Store names the store the payload targets.
	Store string `json:"store"`

	// Event names the event on the target store.
	Event string `json:"event"`

	// Options is passed to the resolved handler as-is.
	Options any `json:"options,omitempty"`
}

// String returns a short human-readable form used in log lines.
func (p Payload) String() string {
	return fmt.Sprintf("%s.%s", p.Store, p.Event)
}

func (p Payload) withID() Payload {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return p
}
