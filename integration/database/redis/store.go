package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/loomhq/loom/core/session"
)

// defaultKeyPrefix namespaces session keys in a shared Redis instance.
const defaultKeyPrefix = "session:"

// record is the stored session shape.
type record struct {
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store persists sessions as JSON values in Redis. It implements
// session.Store.
type Store struct {
	client    *redis.Client
	prefix    string
	ttl       time.Duration
	scanBatch int64
}

// StoreOption configures the Store.
type StoreOption func(*Store)

// WithKeyPrefix overrides the key namespace prefix.
func WithKeyPrefix(prefix string) StoreOption {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTTL sets a Redis-side expiration on stored sessions. Usually set
// to the session max age so Redis garbage-collects on its own; logical
// expiration still applies regardless.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithScanBatchSize sets the SCAN batch size used by DeleteExpired.
func WithScanBatchSize(n int64) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.scanBatch = n
		}
	}
}

// NewStore creates a session store over the given Redis client.
func NewStore(client *redis.Client, opts ...StoreOption) *Store {
	s := &Store{
		client:    client,
		prefix:    defaultKeyPrefix,
		scanBatch: 1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves a session by key.
func (s *Store) Get(ctx context.Context, key string) (*session.Session, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return session.Restore(key, rec.CreatedAt, rec.Data), nil
}

// Create generates, persists, and returns a fresh session.
func (s *Store) Create(ctx context.Context) (*session.Session, error) {
	sess, err := session.New()
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Save persists the session payload.
func (s *Store) Save(ctx context.Context, sess *session.Session) error {
	raw, err := json.Marshal(record{
		Data:      sess.Data(),
		CreatedAt: sess.CreatedAt,
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+sess.Key, raw, s.ttl).Err()
}

// Delete removes a session by key. Deleting an unknown key is not an
// error.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// DeleteExpired scans the session namespace and removes sessions older
// than maxAge. Returns the count of deleted sessions.
func (s *Store) DeleteExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	var (
		deleted int64
		cursor  uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", s.scanBatch).Result()
		if err != nil {
			return deleted, err
		}

		for _, fullKey := range keys {
			raw, err := s.client.Get(ctx, fullKey).Bytes()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return deleted, err
			}

			var rec record
			if err := json.Unmarshal(raw, &rec); err != nil {
				return deleted, err
			}
			if time.Since(rec.CreatedAt) >= maxAge {
				if err := s.client.Del(ctx, fullKey).Err(); err != nil {
					return deleted, err
				}
				deleted++
			}
		}

		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}
