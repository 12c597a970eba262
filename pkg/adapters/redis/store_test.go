package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/coach/pkg/adapters/redis"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func greeting() domain.Node {
	return domain.Node{
		ID:      "greeting",
		Message: "Hi",
		Options: []domain.Option{{Text: "Go", NextState: "motivation"}},
	}
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)
	store := redis.NewFromClient(client)
	ports.RunSessionStoreContract(t, store)
}

func TestRedisStore_New(t *testing.T) {
	mr, _ := setup(t)

	store, err := redis.New("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	assert.NoError(t, store.Ping(context.Background()))
	assert.Equal(t, redis.DefaultPrefix, store.Prefix())

	_, err = redis.New("not a url")
	assert.Error(t, err)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := setup(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	sessionID := "session-ttl"

	// 1. Save
	require.NoError(t, store.Save(ctx, sessionID, domain.NewSession(sessionID, greeting())))

	// 2. Verify List (immediately)
	sessions, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, sessions, sessionID)

	// 3. Fast Forward time in miniredis (for Key Expiration)
	mr.FastForward(2 * time.Second)

	// 4. Verify Load (should fail)
	_, err = store.Load(ctx, sessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// 5. Verify List (lazily cleaned up)
	// The index score is computed from time.Now(), which miniredis does not control.
	time.Sleep(1200 * time.Millisecond)

	sessions, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := setup(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()
	sessionID := "my-session"

	require.NoError(t, store.Save(ctx, sessionID, domain.NewSession(sessionID, greeting())))

	assert.True(t, mr.Exists("custom:app:s:my-session"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:idx"), "Expected index with custom prefix to exist")

	list, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, list, sessionID)

	require.NoError(t, store.Delete(ctx, sessionID))
	assert.False(t, mr.Exists("custom:app:s:my-session"))
}

func TestRedisStore_CorruptValue(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client)

	require.NoError(t, mr.Set(redis.DefaultPrefix+"s:bad", "{not json"))
	_, err := store.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrSessionNotFound))
}

func TestRedisStore_ReservedLookingIDs(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client)
	locker := redis.NewLocker(client, store.LockPrefix())
	ctx := context.Background()

	for _, id := range []string{"alice", "index", "idx", "lock:x", "s:nested"} {
		require.NoError(t, store.Save(ctx, id, domain.NewSession(id, greeting())), "save %s", id)
	}

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "index", "idx", "lock:x", "s:nested"}, ids)

	// A lock on session x must not touch the session named "lock:x".
	unlock, err := locker.Lock(ctx, "x", time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists(redis.DefaultPrefix+"lock:x"))
	require.NoError(t, unlock(ctx))

	loaded, err := store.Load(ctx, "lock:x")
	require.NoError(t, err)
	assert.Equal(t, "lock:x", loaded.ID)

	loaded, err = store.Load(ctx, "index")
	require.NoError(t, err)
	assert.Equal(t, "greeting", loaded.CurrentState)
}
