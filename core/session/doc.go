// Package session provides the session model and persistence contract for
// the middleware core.
//
// A session is a server-side mapping from an unguessable key to arbitrary
// request-scoped data plus a creation timestamp. Expiration is logical:
// a session is expired once its age reaches the configured maximum, and
// expired sessions are never reused — callers issue a fresh one instead.
//
// The Store interface abstracts persistence. The package ships an
// in-memory implementation; Postgres, Redis, and MongoDB backends live
// under integration/database.
//
// Basic usage:
//
//	store := session.NewMemoryStore()
//
//	sess, err := store.Create(ctx)
//	if err != nil {
//		// Handle error
//	}
//
//	sess.Set("value", 42)
//	if err := store.Save(ctx, sess); err != nil {
//		// Handle error
//	}
//
//	sess, err = store.Get(ctx, sess.Key)
//	if errors.Is(err, session.ErrNotFound) {
//		// Unknown or garbage-collected key.
//	}
//
// Stores must isolate sessions from each other under concurrent access.
// Concurrent writes to the same session key may race (last write wins);
// sessions are single-client by convention.
package session
