package ports

import (
	"context"
	"time"

	"github.com/actxion/auth/core"
)

// Store interface for token invalidation
type Store interface {
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
	// InvalidateTokenOnce atomically invalidates tokenID and reports whether
	// this call did so; false means it was already invalidated
	InvalidateTokenOnce(ctx context.Context, tokenID string, expiry time.Duration) (bool, error)
}

// ChallengeStore keeps at most one outstanding challenge per address
type ChallengeStore interface {
	// Put stores the challenge, replacing any previous one for the same address
	Put(ctx context.Context, challenge *core.Challenge) error
	// Take atomically removes and returns the challenge for address.
	// It returns core.ErrNoChallenge when none is stored.
	Take(ctx context.Context, address string) (*core.Challenge, error)
}

// UserStore persists user accounts
type UserStore interface {
	Create(ctx context.Context, user *core.User) error
	FindByID(ctx context.Context, id string) (*core.User, error)
	FindByEmail(ctx context.Context, email string) (*core.User, error)
	FindByWallet(ctx context.Context, address string) (*core.User, error)

	// BindWallet attaches address to the user. It fails with
	// core.ErrDuplicateWalletBinding, leaving every record untouched, when
	// another user already owns the address.
	BindWallet(ctx context.Context, userID, address, signature string) (*core.User, error)
	UnbindWallet(ctx context.Context, userID string) (*core.User, error)
}
