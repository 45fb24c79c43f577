package ports

import (
	"context"

	"github.com/euthlabs/euth/core"
)

// GestureMessage pairs a classified gesture event with the session it
// targets.
type GestureMessage struct {
	SessionID string
	Event     core.GestureEvent
}

// GestureStream is the input boundary from the gesture classifier. The
// channel delivers messages in strict arrival order and is closed when the
// context is cancelled or the underlying transport shuts down.
type GestureStream interface {
	Gestures(ctx context.Context) (<-chan GestureMessage, error)
}
