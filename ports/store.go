package ports

import (
	"context"
	"time"

	"github.com/euthlabs/euth/core"
)

// SessionRecord is what the store persists for one attempt: the serialized
// session plus the scheduling data the service needs for the cooperative
// timeout check.
type SessionRecord struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Deadline  time.Time     `json:"deadline,omitempty"` // zero when the session has no timeout
	Session   core.Snapshot `json:"session"`
}

// SessionStore persists session records between operations. Load returns
// core.ErrSessionNotFound for unknown IDs.
type SessionStore interface {
	Save(ctx context.Context, rec SessionRecord, retention time.Duration) error
	Load(ctx context.Context, id string) (SessionRecord, error)
	Delete(ctx context.Context, id string) error
}
