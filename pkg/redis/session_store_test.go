package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/redis"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/session/sessiontest"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionStore_Contract(t *testing.T) {
	t.Parallel()

	_, client := newTestClient(t)
	sessiontest.RunStoreContract(t, redis.NewSessionStore(client))
}

func TestSessionStore_KeyLayout(t *testing.T) {
	t.Parallel()

	mr, client := newTestClient(t)
	store := redis.NewSessionStore(client, redis.WithPrefix("app:sess:"))
	ctx := context.Background()
	at := time.UnixMilli(1_700_000_000_000).UTC()

	const id = "0123456789abcdef0123456789abcdef"
	require.NoError(t, store.Insert(ctx, &session.Record{ID: id, LastAccess: at, Data: []byte(`{"a":1}`)}))

	assert.True(t, mr.Exists("app:sess:"+id))
	assert.Equal(t, `{"a":1}`, mr.HGet("app:sess:"+id, "data"))
	assert.Equal(t, "1", mr.HGet("app:sess:"+id, "v"))

	score, err := mr.ZScore("app:sess:idx", id)
	require.NoError(t, err)
	assert.InDelta(t, float64(at.UnixMilli()), score, 0)

	require.NoError(t, store.Delete(ctx, id))
	assert.False(t, mr.Exists("app:sess:"+id))
	members, err := mr.ZMembers("app:sess:idx")
	if err == nil {
		assert.NotContains(t, members, id)
	}
}

func TestSessionStore_TTL(t *testing.T) {
	t.Parallel()

	mr, client := newTestClient(t)
	store := redis.NewSessionStore(client, redis.WithTTL(time.Minute))
	ctx := context.Background()

	const id = "0123456789abcdef0123456789abcdef"
	rec := &session.Record{ID: id, LastAccess: time.Now(), Data: []byte(`{}`)}
	require.NoError(t, store.Insert(ctx, rec))
	assert.Equal(t, time.Minute, mr.TTL("session:"+id))

	mr.FastForward(50 * time.Second)
	require.NoError(t, store.Touch(ctx, id, time.Now()))
	assert.Equal(t, time.Minute, mr.TTL("session:"+id), "touch slides the expiry")

	mr.FastForward(2 * time.Minute)
	_, err := store.Find(ctx, id)
	assert.ErrorIs(t, err, session.ErrRecordNotFound)

	// The dangling index entry is dropped by the pruner without being counted.
	n, err := store.DeleteIdle(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSessionStore_DeleteIdleBatches(t *testing.T) {
	t.Parallel()

	_, client := newTestClient(t)
	store := redis.NewSessionStore(client)
	ctx := context.Background()
	old := time.Now().Add(-time.Hour)

	for range 1200 {
		id, err := session.RandomID()
		require.NoError(t, err)
		require.NoError(t, store.Insert(ctx, &session.Record{ID: id, LastAccess: old, Data: []byte(`{}`)}))
	}

	n, err := store.DeleteIdle(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1200), n)
}

func TestSessionStore_Unavailable(t *testing.T) {
	t.Parallel()

	mr, client := newTestClient(t)
	store := redis.NewSessionStore(client)
	mr.Close()

	_, err := store.Find(context.Background(), "0123456789abcdef0123456789abcdef")
	assert.ErrorIs(t, err, redis.ErrRedisUnavailable)
}

func TestConnectAndHealthcheck(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := redis.Connect(ctx, redis.Config{
		ConnectionURL:  "redis://" + mr.Addr() + "/0",
		RetryAttempts:  1,
		RetryInterval:  10 * time.Millisecond,
		ConnectTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, redis.Healthcheck(client)(ctx))

	mr.Close()
	assert.ErrorIs(t, redis.Healthcheck(client)(ctx), redis.ErrHealthcheckFailed)
}

func TestConnect_Errors(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{})
	assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)

	_, err = redis.Connect(context.Background(), redis.Config{ConnectionURL: "://bad"})
	assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
}
