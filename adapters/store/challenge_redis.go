package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/actxion/auth/core"
	"github.com/actxion/auth/ports"
	"github.com/redis/go-redis/v9"
)

type challengeRecord struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	Nonce     string    `json:"nonce"`
	Message   string    `json:"message"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RedisChallengeStore keeps challenges in Redis, one key per address
type RedisChallengeStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisChallengeStore creates a Redis challenge store
func NewRedisChallengeStore(client redis.UniversalClient) ports.ChallengeStore {
	return &RedisChallengeStore{
		client: client,
		prefix: "actxion:challenge:",
	}
}

// Put stores the challenge with a TTL covering its lifetime plus the retention window
func (s *RedisChallengeStore) Put(ctx context.Context, challenge *core.Challenge) error {
	payload, err := json.Marshal(challengeRecord{
		ID:        challenge.ID,
		Address:   challenge.Address,
		Nonce:     challenge.Nonce,
		Message:   challenge.Message,
		IssuedAt:  challenge.IssuedAt,
		ExpiresAt: challenge.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}

	ttl := time.Until(challenge.ExpiresAt) + ExpiredRetention
	if ttl <= 0 {
		ttl = ExpiredRetention
	}

	if err := s.client.Set(ctx, s.prefix+challenge.Address, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store challenge: %w: %v", core.ErrStoreUnavailable, err)
	}

	return nil
}

// Take reads and deletes the challenge in a single GETDEL
func (s *RedisChallengeStore) Take(ctx context.Context, address string) (*core.Challenge, error) {
	payload, err := s.client.GetDel(ctx, s.prefix+address).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrNoChallenge
		}
		return nil, fmt.Errorf("failed to take challenge: %w: %v", core.ErrStoreUnavailable, err)
	}

	var rec challengeRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}

	return &core.Challenge{
		ID:        rec.ID,
		Address:   rec.Address,
		Nonce:     rec.Nonce,
		Message:   rec.Message,
		IssuedAt:  rec.IssuedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}
