package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/actxion/auth/core"
	"github.com/actxion/auth/ports"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "0x52908400098527886e0f7030069857d2e4169ee7"

func newChallenge(address, nonce string, ttl time.Duration) *core.Challenge {
	now := time.Now()
	return &core.Challenge{
		ID:        nonce,
		Address:   address,
		Nonce:     nonce,
		Message:   core.FormatMessage(nonce),
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func challengeStores(t *testing.T) map[string]ports.ChallengeStore {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]ports.ChallengeStore{
		"memory": NewMemoryChallengeStore(),
		"redis":  NewRedisChallengeStore(client),
	}
}

func TestChallengeStoreTakeIsSingleUse(t *testing.T) {
	for name, s := range challengeStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newChallenge(testAddress, "aa", time.Minute)
			require.NoError(t, s.Put(ctx, c))

			got, err := s.Take(ctx, testAddress)
			require.NoError(t, err)
			assert.Equal(t, c.Message, got.Message)
			assert.Equal(t, c.Nonce, got.Nonce)
			assert.WithinDuration(t, c.ExpiresAt, got.ExpiresAt, time.Millisecond)

			_, err = s.Take(ctx, testAddress)
			require.ErrorIs(t, err, core.ErrNoChallenge)
		})
	}
}

func TestChallengeStorePutOverwrites(t *testing.T) {
	for name, s := range challengeStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Put(ctx, newChallenge(testAddress, "first", time.Minute)))
			require.NoError(t, s.Put(ctx, newChallenge(testAddress, "second", time.Minute)))

			got, err := s.Take(ctx, testAddress)
			require.NoError(t, err)
			assert.Equal(t, "second", got.Nonce)
		})
	}
}

func TestChallengeStoreUnknownAddress(t *testing.T) {
	for name, s := range challengeStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Take(context.Background(), testAddress)
			require.ErrorIs(t, err, core.ErrNoChallenge)
		})
	}
}

func TestChallengeStoreConcurrentTake(t *testing.T) {
	for name, s := range challengeStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Put(ctx, newChallenge(testAddress, "race", time.Minute)))

			var wins atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := s.Take(ctx, testAddress); err == nil {
						wins.Add(1)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(1), wins.Load())
		})
	}
}

func TestMemoryChallengeStoreRetention(t *testing.T) {
	now := time.Now()
	s := newMemoryChallengeStore(func() time.Time { return now })
	ctx := context.Background()

	expired := &core.Challenge{Address: testAddress, ExpiresAt: now.Add(-time.Second)}
	require.NoError(t, s.Put(ctx, expired))

	got, err := s.Take(ctx, testAddress)
	require.NoError(t, err, "recently expired challenges are still returned")
	assert.True(t, got.Expired(now))

	stale := &core.Challenge{Address: testAddress, ExpiresAt: now.Add(-2 * ExpiredRetention)}
	require.NoError(t, s.Put(ctx, stale))
	_, err = s.Take(ctx, testAddress)
	require.ErrorIs(t, err, core.ErrNoChallenge)

	require.NoError(t, s.Put(ctx, stale))
	require.NoError(t, s.Put(ctx, &core.Challenge{Address: "0x0000000000000000000000000000000000000001", ExpiresAt: now.Add(time.Minute)}))
	assert.Equal(t, 1, s.Len(), "stale entries are pruned on write")
}

func TestRedisChallengeStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisChallengeStore(client)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, newChallenge(testAddress, "ttl", time.Minute)))

	ttl := mr.TTL("actxion:challenge:" + testAddress)
	assert.Greater(t, ttl, time.Minute)
	assert.LessOrEqual(t, ttl, time.Minute+ExpiredRetention)

	mr.FastForward(time.Minute + ExpiredRetention + time.Second)
	_, err := s.Take(ctx, testAddress)
	require.ErrorIs(t, err, core.ErrNoChallenge)
}

func TestRedisChallengeStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	s := NewRedisChallengeStore(client)
	mr.Close()

	err := s.Put(context.Background(), newChallenge(testAddress, "x", time.Minute))
	require.ErrorIs(t, err, core.ErrStoreUnavailable)

	_, err = s.Take(context.Background(), testAddress)
	require.ErrorIs(t, err, core.ErrStoreUnavailable)
}
