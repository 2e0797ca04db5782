package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomhq/loom/core/session"
	redisdb "github.com/loomhq/loom/integration/database/redis"
)

func newTestStore(t *testing.T, opts ...redisdb.StoreOption) (*redisdb.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redisdb.NewStore(client, opts...), mr
}

func TestStore_CreateAndGet(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, sess.Key)

	sess.Set("user_id", "42")
	require.NoError(t, store.Save(ctx, sess))

	loaded, err := store.Get(ctx, sess.Key)
	require.NoError(t, err)
	assert.Equal(t, sess.Key, loaded.Key)
	assert.WithinDuration(t, sess.CreatedAt, loaded.CreatedAt, time.Second)

	v, ok := loaded.Get("user_id")
	require.True(t, ok)
	assert.Equal(t, "42", v)
}

func TestStore_GetUnknownKey(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "no-such-key")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, sess.Key))
	_, err = store.Get(ctx, sess.Key)
	assert.ErrorIs(t, err, session.ErrNotFound)

	// Unknown keys delete without error.
	assert.NoError(t, store.Delete(ctx, "no-such-key"))
}

func TestStore_KeyPrefix(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t, redisdb.WithKeyPrefix("loom:sess:"))
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	assert.True(t, mr.Exists("loom:sess:"+sess.Key))
}

func TestStore_TTL(t *testing.T) {
	t.Parallel()

	store, mr := newTestStore(t, redisdb.WithTTL(time.Hour))
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	assert.Equal(t, time.Hour, mr.TTL("session:"+sess.Key))
}

func TestStore_DeleteExpired(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	fresh, err := store.Create(ctx)
	require.NoError(t, err)

	stale := session.Restore("stale-key", time.Now().Add(-48*time.Hour), map[string]any{"v": "old"})
	require.NoError(t, store.Save(ctx, stale))

	deleted, err := store.DeleteExpired(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = store.Get(ctx, stale.Key)
	assert.ErrorIs(t, err, session.ErrNotFound)

	_, err = store.Get(ctx, fresh.Key)
	assert.NoError(t, err)
}
