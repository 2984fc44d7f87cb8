package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/actxion/auth/core"
	"github.com/actxion/auth/internal/metrics"
	"github.com/actxion/auth/ports"
	"go.uber.org/zap"
)

const (
	// MinPasswordLength is the shortest password accepted at registration
	MinPasswordLength = 6
	// MaxPasswordLength is the longest password in bytes; bcrypt refuses anything longer
	MaxPasswordLength = 72
)

// Credentials registers accounts and authorizes email/password logins
type Credentials struct {
	users  ports.UserStore
	hasher ports.PasswordHasher
	logger *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentials creates a credential authorizer
func NewCredentials(users ports.UserStore, hasher ports.PasswordHasher, opts ...Option) *Credentials {
	o := newOptions(opts)
	return &Credentials{
		users:  users,
		hasher: hasher,
		logger: o.logger.Named("credentials"),
	}
}

// Register creates an account for email protected by password
func (c *Credentials) Register(ctx context.Context, email, password, confirmPassword string) (*core.User, error) {
	user, err := c.register(ctx, email, password, confirmPassword)
	metrics.Registrations.WithLabelValues(registrationResult(err)).Inc()
	return user, err
}

func (c *Credentials) register(ctx context.Context, email, password, confirmPassword string) (*core.User, error) {
	email = core.NormalizeEmail(email)
	if email == "" || password == "" || confirmPassword == "" {
		return nil, core.ErrMissingFields
	}
	if !core.ValidEmail(email) {
		return nil, core.ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, core.ErrWeakPassword
	}
	if len(password) > MaxPasswordLength {
		return nil, core.ErrPasswordTooLong
	}
	if password != confirmPassword {
		return nil, core.ErrPasswordMismatch
	}

	switch _, err := c.users.FindByEmail(ctx, email); {
	case err == nil:
		return nil, core.ErrEmailTaken
	case !errors.Is(err, core.ErrUserNotFound):
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := c.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &core.User{Email: email, PasswordHash: hash}
	if err := c.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	c.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Authorize checks email and password and returns the identity of the
// account. Every failure other than a store outage is ErrInvalidCredentials.
func (c *Credentials) Authorize(ctx context.Context, email, password string) (*core.Identity, error) {
	id, err := c.authorize(ctx, email, password)
	switch {
	case err == nil:
		metrics.CredentialLogins.WithLabelValues(metrics.ResultOK).Inc()
	case errors.Is(err, core.ErrStoreUnavailable):
		metrics.CredentialLogins.WithLabelValues(metrics.ResultUnavailable).Inc()
		c.logger.Error("user store unavailable", zap.Error(err))
	default:
		metrics.CredentialLogins.WithLabelValues(metrics.ResultInvalid).Inc()
	}
	return id, err
}

func (c *Credentials) authorize(ctx context.Context, email, password string) (*core.Identity, error) {
	email = core.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, core.ErrInvalidCredentials
	}

	user, err := c.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, core.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		// same work as a real check so response time does not reveal unknown emails
		c.verifyDummy(password)
		return nil, core.ErrInvalidCredentials
	}

	if user.PasswordHash == "" {
		c.verifyDummy(password)
		return nil, core.ErrInvalidCredentials
	}

	ok, err := c.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		c.logger.Error("stored password hash unusable", zap.String("user_id", user.ID), zap.Error(err))
		return nil, core.ErrInvalidCredentials
	}
	if !ok {
		c.logger.Info("password mismatch", zap.String("user_id", user.ID))
		return nil, core.ErrInvalidCredentials
	}

	return core.IdentityOf(user), nil
}

func (c *Credentials) verifyDummy(password string) {
	c.dummyOnce.Do(func() {
		hash, err := c.hasher.Hash(strings.Repeat("x", MinPasswordLength*2))
		if err != nil {
			c.logger.Warn("failed to prepare dummy hash", zap.Error(err))
			return
		}
		c.dummyHash = hash
	})
	if c.dummyHash != "" {
		_, _ = c.hasher.Verify(c.dummyHash, password)
	}
}

func registrationResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, core.ErrStoreUnavailable):
		return metrics.ResultUnavailable
	default:
		return metrics.ResultInvalid
	}
}
