package ports

import (
	"context"
	"time"

	"github.com/euthlabs/euth/core"
)

// AttemptCompleted is published when a session reaches a terminal state.
// Candidate is populated only for verbose sessions.
type AttemptCompleted struct {
	SessionID     string              `json:"session_id"`
	Authenticated bool                `json:"authenticated"`
	Reason        core.FinalizeReason `json:"reason"`
	Verified      bool                `json:"verified"`
	Candidate     string              `json:"candidate,omitempty"`
	CompletedAt   time.Time           `json:"completed_at"`
}

// EventPublisher publishes attempt outcomes to notify other components.
type EventPublisher interface {
	PublishAttemptCompleted(ctx context.Context, event AttemptCompleted) error
}
