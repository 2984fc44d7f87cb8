package store

import (
	"context"
	"sync"
	"time"

	"github.com/actxion/auth/core"
	"github.com/actxion/auth/ports"
)

// ExpiredRetention is how long an expired challenge is kept so that a late
// verification is reported as expired instead of missing
const ExpiredRetention = time.Minute

// MemoryChallengeStore keeps challenges in process memory
type MemoryChallengeStore struct {
	challenges map[string]core.Challenge
	mu         sync.Mutex
	now        func() time.Time
}

// NewMemoryChallengeStore creates an in-memory challenge store
func NewMemoryChallengeStore() ports.ChallengeStore {
	return newMemoryChallengeStore(time.Now)
}

func newMemoryChallengeStore(now func() time.Time) *MemoryChallengeStore {
	return &MemoryChallengeStore{
		challenges: make(map[string]core.Challenge),
		now:        now,
	}
}

// Put stores the challenge, replacing any earlier one for the address.
// Entries past their retention window are dropped on the way.
func (s *MemoryChallengeStore) Put(ctx context.Context, challenge *core.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-ExpiredRetention)
	for address, c := range s.challenges {
		if c.ExpiresAt.Before(cutoff) {
			delete(s.challenges, address)
		}
	}

	s.challenges[challenge.Address] = *challenge
	return nil
}

// Take removes and returns the challenge for address
func (s *MemoryChallengeStore) Take(ctx context.Context, address string) (*core.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[address]
	if !ok {
		return nil, core.ErrNoChallenge
	}
	delete(s.challenges, address)

	if c.ExpiresAt.Before(s.now().Add(-ExpiredRetention)) {
		return nil, core.ErrNoChallenge
	}

	return &c, nil
}

// Len returns the number of stored challenges
func (s *MemoryChallengeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.challenges)
}
