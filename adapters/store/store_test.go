package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/actxion/auth/ports"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreInvalidation(t *testing.T) {
	now := time.Now()
	s := &MemoryStore{invalidatedTokens: make(map[string]time.Time), now: func() time.Time { return now }}
	ctx := context.Background()

	invalidated, err := s.IsTokenInvalidated(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, s.InvalidateToken(ctx, "jti", time.Minute))
	invalidated, err = s.IsTokenInvalidated(ctx, "jti")
	require.NoError(t, err)
	assert.True(t, invalidated)

	now = now.Add(2 * time.Minute)
	invalidated, err = s.IsTokenInvalidated(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, s.InvalidateToken(ctx, "other", time.Minute))
	assert.Len(t, s.invalidatedTokens, 1)
}

func TestRedisStoreInvalidation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, s.InvalidateToken(ctx, "jti", time.Minute))
	invalidated, err := s.IsTokenInvalidated(ctx, "jti")
	require.NoError(t, err)
	assert.True(t, invalidated)

	mr.FastForward(2 * time.Minute)
	invalidated, err = s.IsTokenInvalidated(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestInvalidateTokenOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	stores := map[string]ports.Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(client),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			first, err := s.InvalidateTokenOnce(ctx, name+"-jti", time.Minute)
			require.NoError(t, err)
			assert.True(t, first)

			again, err := s.InvalidateTokenOnce(ctx, name+"-jti", time.Minute)
			require.NoError(t, err)
			assert.False(t, again)

			invalidated, err := s.IsTokenInvalidated(ctx, name+"-jti")
			require.NoError(t, err)
			assert.True(t, invalidated)
		})

		t.Run(name+" concurrent", func(t *testing.T) {
			ctx := context.Background()

			var wins atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if ok, err := s.InvalidateTokenOnce(ctx, name+"-race", time.Minute); err == nil && ok {
						wins.Add(1)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(1), wins.Load())
		})
	}
}

func TestMemoryStoreInvalidateTokenOnceAfterExpiry(t *testing.T) {
	now := time.Now()
	s := &MemoryStore{invalidatedTokens: make(map[string]time.Time), now: func() time.Time { return now }}
	ctx := context.Background()

	first, err := s.InvalidateTokenOnce(ctx, "jti", time.Minute)
	require.NoError(t, err)
	require.True(t, first)

	now = now.Add(2 * time.Minute)
	again, err := s.InvalidateTokenOnce(ctx, "jti", time.Minute)
	require.NoError(t, err)
	assert.True(t, again, "an expired invalidation no longer blocks")
}
