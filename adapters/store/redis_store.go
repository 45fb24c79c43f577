package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/euthlabs/euth/core"
	"github.com/euthlabs/euth/ports"
)

// defaultRetention bounds how long a record without an explicit retention
// survives in Redis.
const defaultRetention = time.Hour

// RedisStore is a Redis implementation of the SessionStore interface,
// allowing a session to be driven from multiple service instances.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "euth:session:",
	}
}

// Save stores a serialized session record with the given retention TTL.
func (s *RedisStore) Save(ctx context.Context, rec ports.SessionRecord, retention time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	if retention <= 0 {
		retention = defaultRetention
	}

	if err := s.client.Set(ctx, s.prefix+rec.ID, payload, retention).Err(); err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}

	return nil
}

// Load retrieves a session record by ID.
func (s *RedisStore) Load(ctx context.Context, id string) (ports.SessionRecord, error) {
	payload, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ports.SessionRecord{}, core.ErrSessionNotFound
		}
		return ports.SessionRecord{}, fmt.Errorf("failed to load session record: %w", err)
	}

	var rec ports.SessionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return ports.SessionRecord{}, fmt.Errorf("failed to unmarshal session record: %w", err)
	}

	return rec, nil
}

// Delete removes a session record.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session record: %w", err)
	}
	return nil
}
