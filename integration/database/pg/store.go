package pg

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loomhq/loom/core/session"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists sessions in the sessions table. It implements
// session.Store and participates in a transaction carried by the context
// via WithTx.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a session store over the given connection pool. The
// schema must be in place; see Migrate.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) conn(ctx context.Context) querier {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return s.pool
}

// Get retrieves a session by key.
func (s *Store) Get(ctx context.Context, key string) (*session.Session, error) {
	const query = `SELECT data, created_at FROM sessions WHERE session_key = $1`

	var (
		raw       []byte
		createdAt time.Time
	)
	err := s.conn(ctx).QueryRow(ctx, query, key).Scan(&raw, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return session.Restore(key, createdAt, data), nil
}

// Create generates, persists, and returns a fresh session.
func (s *Store) Create(ctx context.Context) (*session.Session, error) {
	sess, err := session.New()
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(sess.Data())
	if err != nil {
		return nil, err
	}

	const query = `INSERT INTO sessions (id, session_key, data, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.conn(ctx).Exec(ctx, query, uuid.New(), sess.Key, raw, sess.CreatedAt); err != nil {
		return nil, err
	}
	return sess, nil
}

// Save persists the session payload. Sessions created elsewhere are
// adopted; created_at is never updated for existing rows.
func (s *Store) Save(ctx context.Context, sess *session.Session) error {
	raw, err := json.Marshal(sess.Data())
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO sessions (id, session_key, data, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_key) DO UPDATE SET data = EXCLUDED.data`
	_, err = s.conn(ctx).Exec(ctx, query, uuid.New(), sess.Key, raw, sess.CreatedAt)
	return err
}

// Delete removes a session by key. Deleting an unknown key is not an
// error.
func (s *Store) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM sessions WHERE session_key = $1`
	_, err := s.conn(ctx).Exec(ctx, query, key)
	return err
}

// DeleteExpired removes sessions older than maxAge and returns the count
// of deleted rows.
func (s *Store) DeleteExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	const query = `DELETE FROM sessions WHERE created_at <= $1`

	cutoff := time.Now().Add(-maxAge)
	tag, err := s.conn(ctx).Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
