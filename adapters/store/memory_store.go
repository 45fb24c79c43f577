package store

import (
	"context"
	"sync"
	"time"

	"github.com/euthlabs/euth/core"
	"github.com/euthlabs/euth/ports"
)

// MemoryStore is an in-memory implementation of the SessionStore interface,
// for tests and single-node deployments. The retention parameter is
// ignored; records live until deleted.
type MemoryStore struct {
	records map[string]ports.SessionRecord
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]ports.SessionRecord),
	}
}

// Save stores a session record, replacing any previous record for the ID.
func (s *MemoryStore) Save(ctx context.Context, rec ports.SessionRecord, retention time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.ID] = rec
	return nil
}

// Load retrieves a session record by ID.
func (s *MemoryStore) Load(ctx context.Context, id string) (ports.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return ports.SessionRecord{}, core.ErrSessionNotFound
	}
	return rec, nil
}

// Delete removes a session record. Deleting an unknown ID is a no-op.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}
