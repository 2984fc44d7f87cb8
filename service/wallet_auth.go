package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/actxion/auth/core"
	"github.com/actxion/auth/internal/metrics"
	"github.com/actxion/auth/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NonceSize is the number of random bytes in a challenge nonce
const NonceSize = 32

// WalletAuth issues sign-in challenges and verifies the signatures returned for them
type WalletAuth struct {
	challenges ports.ChallengeStore
	verifier   ports.SignatureVerifier
	logger     *zap.Logger
	now        func() time.Time
	ttl        time.Duration
}

// NewWalletAuth creates a wallet authenticator backed by challenges
func NewWalletAuth(challenges ports.ChallengeStore, verifier ports.SignatureVerifier, opts ...Option) *WalletAuth {
	o := newOptions(opts)
	return &WalletAuth{
		challenges: challenges,
		verifier:   verifier,
		logger:     o.logger.Named("wallet"),
		now:        o.now,
		ttl:        o.challengeTTL,
	}
}

// IssueChallenge creates a fresh challenge for address, replacing any
// outstanding one, and returns the message the wallet must sign
func (w *WalletAuth) IssueChallenge(ctx context.Context, address string) (string, error) {
	addr, err := core.NormalizeAddress(address)
	if err != nil {
		return "", err
	}

	nonceBytes := make([]byte, NonceSize)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(nonceBytes)

	now := w.now()
	challenge := &core.Challenge{
		ID:        uuid.New().String(),
		Address:   addr,
		Nonce:     nonce,
		Message:   core.FormatMessage(nonce),
		IssuedAt:  now,
		ExpiresAt: now.Add(w.ttl),
	}

	if err := w.challenges.Put(ctx, challenge); err != nil {
		return "", fmt.Errorf("failed to store challenge: %w", err)
	}

	metrics.ChallengesIssued.Inc()
	w.logger.Debug("challenge issued",
		zap.String("address", addr),
		zap.String("challenge_id", challenge.ID),
		zap.Time("expires_at", challenge.ExpiresAt))

	return challenge.Message, nil
}

// Verify checks signature against the outstanding challenge of address and
// returns the normalized address on success. The challenge is consumed by the
// attempt whatever its outcome.
func (w *WalletAuth) Verify(ctx context.Context, address, signature string) (string, error) {
	addr, err := w.verify(ctx, address, signature)
	metrics.Verifications.WithLabelValues(verificationResult(err)).Inc()
	if err != nil {
		if errors.Is(err, core.ErrStoreUnavailable) {
			w.logger.Error("challenge store unavailable", zap.String("address", address), zap.Error(err))
		} else {
			w.logger.Warn("wallet verification failed", zap.String("address", address), zap.Error(err))
		}
		return "", err
	}
	return addr, nil
}

func (w *WalletAuth) verify(ctx context.Context, address, signature string) (string, error) {
	addr, err := core.NormalizeAddress(address)
	if err != nil {
		// a malformed address can never hold a challenge
		return "", fmt.Errorf("%w: %v", core.ErrNoChallenge, err)
	}

	challenge, err := w.challenges.Take(ctx, addr)
	if err != nil {
		return "", err
	}

	if challenge.Expired(w.now()) {
		return "", core.ErrChallengeExpired
	}

	if err := w.verifier.Verify(challenge.Message, signature, addr); err != nil {
		return "", err
	}

	return addr, nil
}

func verificationResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, core.ErrNoChallenge):
		return metrics.ResultNoChallenge
	case errors.Is(err, core.ErrChallengeExpired):
		return metrics.ResultExpired
	case errors.Is(err, core.ErrSignatureMismatch):
		return metrics.ResultSignatureMismatch
	case errors.Is(err, core.ErrStoreUnavailable):
		return metrics.ResultUnavailable
	default:
		return metrics.ResultError
	}
}
