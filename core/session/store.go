package session

import (
	"context"
	"time"
)

// Store defines the persistence contract for sessions.
// Implementations must isolate sessions from each other under concurrent
// access; last-writer-wins per session key is acceptable.
type Store interface {
	// Get retrieves a session by key. Returns ErrNotFound for unknown keys.
	Get(ctx context.Context, key string) (*Session, error)

	// Create generates, persists, and returns a fresh session.
	Create(ctx context.Context) (*Session, error)

	// Save persists the session payload.
	Save(ctx context.Context, sess *Session) error

	// Delete removes a session by key. Deleting an unknown key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteExpired removes sessions older than maxAge and returns the count
	// of deleted sessions. Expiration is otherwise logical; this exists for
	// out-of-band garbage collection.
	DeleteExpired(ctx context.Context, maxAge time.Duration) (int64, error)
}
