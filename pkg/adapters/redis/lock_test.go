package redis_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/coach/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_AcquireRelease(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "coach:lock:", redis.WithRetryInterval(10*time.Millisecond))
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1", time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("coach:lock:s1"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("coach:lock:s1"))
}

func TestLocker_Contention(t *testing.T) {
	_, client := setup(t)
	locker := redis.NewLocker(client, "coach:lock:", redis.WithRetryInterval(5*time.Millisecond))
	ctx := context.Background()

	var (
		mu      sync.Mutex
		holders int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "shared", 5*time.Second)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			holders++
			if holders > maxSeen {
				maxSeen = holders
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
			assert.NoError(t, unlock(ctx))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestLocker_ContextCancel(t *testing.T) {
	_, client := setup(t)
	locker := redis.NewLocker(client, "coach:lock:", redis.WithRetryInterval(5*time.Millisecond))

	unlock, err := locker.Lock(context.Background(), "busy", 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "busy", 5*time.Second)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLocker_ContextDoneBeforeFirstAttempt(t *testing.T) {
	_, client := setup(t)
	locker := redis.NewLocker(client, "coach:lock:")

	// The SET NX itself fails on a dead context; the error still reads as a lock failure.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := locker.Lock(ctx, "s1", time.Second)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocker_RedisDown(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "coach:lock:")
	mr.Close()

	_, err := locker.Lock(context.Background(), "s1", time.Second)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)
}

func TestLocker_ExpiredLockIsNotStolen(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "coach:lock:")
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "s1", time.Second)
	require.NoError(t, err)

	// A's lock expires and B takes it over.
	mr.FastForward(2 * time.Second)
	unlockB, err := locker.Lock(ctx, "s1", time.Second)
	require.NoError(t, err)

	// A's late release must not remove B's lock.
	require.NoError(t, unlockA(ctx))
	assert.True(t, mr.Exists("coach:lock:s1"))
	require.NoError(t, unlockB(ctx))
	assert.False(t, mr.Exists("coach:lock:s1"))
}
