package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation. Suitable for tests and
// single-process deployments; sessions do not survive restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

// Get retrieves a session by key.
func (s *MemoryStore) Get(_ context.Context, key string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Create generates, stores, and returns a fresh session.
func (s *MemoryStore) Create(_ context.Context) (*Session, error) {
	sess, err := New()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.Key] = sess
	s.mu.Unlock()

	return sess, nil
}

// Save persists the session. Sessions created elsewhere are adopted.
func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	s.sessions[sess.Key] = sess
	s.mu.Unlock()
	return nil
}

// Delete removes a session by key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
	return nil
}

// DeleteExpired removes sessions older than maxAge.
func (s *MemoryStore) DeleteExpired(_ context.Context, maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for key, sess := range s.sessions {
		if sess.IsExpired(maxAge) {
			delete(s.sessions, key)
			deleted++
		}
	}
	return deleted, nil
}

// Len returns the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Keys returns the keys of all stored sessions in unspecified order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.sessions))
	for key := range s.sessions {
		keys = append(keys, key)
	}
	return keys
}
