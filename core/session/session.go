package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"maps"
	"sync"
	"time"
)

// Session represents a persisted user session.
type Session struct {
	// Key is the unguessable session identifier used as the cookie value
	// and the primary lookup key. It never changes for the lifetime of the
	// session.
	Key string

	// CreatedAt is set once at creation and never updated on mutation.
	// Expiration is derived from it.
	CreatedAt time.Time

	// data holds the application payload. Guarded by mu so concurrent
	// readers within a request don't corrupt the map.
	data map[string]any
	mu   sync.RWMutex
}

// New creates a session with a freshly generated key and CreatedAt set to
// the current time. Most callers should use Store.Create instead, which
// also persists the new session.
func New() (*Session, error) {
	key, err := generateKey()
	if err != nil {
		return nil, errors.Join(ErrKeyGeneration, err)
	}

	return &Session{
		Key:       key,
		CreatedAt: time.Now(),
		data:      make(map[string]any),
	}, nil
}

// Restore rebuilds a session from persisted state. Store backends use it
// when hydrating a session from their datastore; the payload map is
// adopted as-is.
func Restore(key string, createdAt time.Time, data map[string]any) *Session {
	if data == nil {
		data = make(map[string]any)
	}
	return &Session{
		Key:       key,
		CreatedAt: createdAt,
		data:      data,
	}
}

// Get retrieves a value from the session payload.
func (s *Session) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores a value in the session payload. The change is in-memory until
// the session is saved.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string]any)
	}
	s.data[key] = value
}

// Delete removes a value from the session payload.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Has reports whether the payload contains the given key.
func (s *Session) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

// Data returns a copy of the session payload for serialization.
func (s *Session) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.data)
}

// SetData replaces the whole payload, taking ownership of the given map.
// Used by stores when hydrating a session from persistence.
func (s *Session) SetData(data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data == nil {
		data = make(map[string]any)
	}
	s.data = data
}

// IsExpired reports whether the session age has reached maxAge.
// Expired sessions are never reused; callers issue a new one.
func (s *Session) IsExpired(maxAge time.Duration) bool {
	return time.Since(s.CreatedAt) >= maxAge
}

// generateKey creates a cryptographically secure random session key using
// 32 bytes (256 bits) encoded as base64url without padding.
func generateKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
