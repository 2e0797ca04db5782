package session

import "errors"

var (
	// ErrNotFound is returned when a session cannot be found in the store.
	ErrNotFound = errors.New("session not found")

	// ErrKeyGeneration is returned when generating a session key fails.
	ErrKeyGeneration = errors.New("failed to generate session key")

	// ErrSaveSession is returned when persisting a session fails.
	ErrSaveSession = errors.New("failed to save session")
)
