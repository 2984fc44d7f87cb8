package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/actxion/auth/core"
	"github.com/actxion/auth/internal/metrics"
	"github.com/actxion/auth/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MethodWallet   = "wallet"
	MethodPassword = "password"
	MethodRefresh  = "refresh"
)

// TokenPair is the result of opening or rotating a session
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration // lifetime of the access token
}

// LoginResult describes a successful login
type LoginResult struct {
	TokenPair
	// Linked is false when a wallet signed in without a bound account; the
	// client should offer to connect it
	Linked  bool
	Address string
	User    *core.Identity
}

// AuthService handles session business logic on top of wallet and credential authentication
type AuthService struct {
	tokenizer   ports.Tokenizer
	store       ports.Store
	eventPub    ports.EventPublisher
	users       ports.UserStore
	wallet      *WalletAuth
	credentials *Credentials
	logger      *zap.Logger
	now         func() time.Time

	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthService creates a new authentication service
func NewAuthService(
	tokenizer ports.Tokenizer,
	store ports.Store,
	eventPub ports.EventPublisher,
	users ports.UserStore,
	wallet *WalletAuth,
	credentials *Credentials,
	opts ...Option,
) *AuthService {
	o := newOptions(opts)
	return &AuthService{
		tokenizer:   tokenizer,
		store:       store,
		eventPub:    eventPub,
		users:       users,
		wallet:      wallet,
		credentials: credentials,
		logger:      o.logger.Named("auth"),
		now:         o.now,
		accessTTL:   o.accessTTL,
		refreshTTL:  o.refreshTTL,
	}
}

// WalletLogin authenticates a signed challenge and opens a session for the
// account bound to the wallet, or a wallet-only session when none is bound
func (s *AuthService) WalletLogin(ctx context.Context, address, signature string) (*LoginResult, error) {
	addr, err := s.wallet.Verify(ctx, address, signature)
	if err != nil {
		return nil, fmt.Errorf("wallet verification failed: %w", err)
	}

	session := s.newSession()
	session.Address = addr

	result := &LoginResult{Address: addr}

	user, err := s.users.FindByWallet(ctx, addr)
	switch {
	case err == nil:
		session.UserID = user.ID
		session.Email = user.Email
		result.Linked = true
		result.User = core.IdentityOf(user)
	case errors.Is(err, core.ErrUserNotFound):
	default:
		return nil, fmt.Errorf("failed to look up wallet owner: %w", err)
	}

	pair, err := s.issue(ctx, session, MethodWallet)
	if err != nil {
		return nil, err
	}
	result.TokenPair = *pair

	return result, nil
}

// PasswordLogin authorizes email and password and opens a session for the account
func (s *AuthService) PasswordLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	identity, err := s.credentials.Authorize(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	session := s.newSession()
	session.UserID = user.ID
	session.Email = user.Email
	session.Address = user.WalletAddress

	pair, err := s.issue(ctx, session, MethodPassword)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		TokenPair: *pair,
		Linked:    user.HasWallet(),
		Address:   user.WalletAddress,
		User:      identity,
	}, nil
}

// Refresh rotates the refresh token and issues new access and refresh tokens
func (s *AuthService) Refresh(ctx context.Context, refreshTokenStr string) (*TokenPair, error) {
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	if s.now().After(session.RefreshExpiry) {
		return nil, core.ErrTokenExpired
	}

	remaining := session.RefreshExpiry.Sub(s.now())
	if remaining <= 0 {
		return nil, core.ErrTokenExpired
	}

	// the old token stays blocked for the rest of its lifetime; only the
	// caller that blocks it may rotate
	rotated, err := s.store.InvalidateTokenOnce(ctx, session.RefreshID, remaining)
	if err != nil {
		return nil, fmt.Errorf("failed to invalidate old token: %w", err)
	}
	if !rotated {
		s.logger.Warn("invalidated refresh token presented", zap.String("subject", session.Subject()))
		return nil, core.ErrTokenInvalidated
	}

	next := s.newSession()
	next.UserID = session.UserID
	next.Address = session.Address
	next.Email = session.Email

	return s.tokens(next, MethodRefresh)
}

// Logout invalidates a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshTokenStr string) error {
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return fmt.Errorf("invalid refresh token: %w", err)
	}

	remaining := session.RefreshExpiry.Sub(s.now())
	if remaining <= 0 {
		remaining = time.Hour
	}

	if err := s.store.InvalidateToken(ctx, session.RefreshID, remaining); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	if err := s.eventPub.PublishLogout(ctx, session.Address, session.RefreshID); err != nil {
		// the token is already invalidated in the store
		s.logger.Warn("failed to publish logout event", zap.Error(err))
	}

	return nil
}

// ValidateAccessToken parses an access token and checks it has not been revoked
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*core.Session, error) {
	session, err := s.tokenizer.AccessTokenToSession(accessToken)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	if s.now().After(session.AccessExpiry) {
		return nil, core.ErrTokenExpired
	}

	// revoking a refresh token also revokes the access tokens minted with it
	if session.RefreshID != "" {
		invalidated, err := s.store.IsTokenInvalidated(ctx, session.RefreshID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token invalidation: %w", err)
		}
		if invalidated {
			return nil, core.ErrTokenInvalidated
		}
	}

	return session, nil
}

func (s *AuthService) newSession() *core.Session {
	now := s.now()
	return &core.Session{
		ID:            uuid.New().String(),
		IssuedAt:      now,
		RefreshExpiry: now.Add(s.refreshTTL),
		AccessExpiry:  now.Add(s.accessTTL),
		RefreshID:     uuid.New().String(),
	}
}

func (s *AuthService) issue(ctx context.Context, session *core.Session, method string) (*TokenPair, error) {
	pair, err := s.tokens(session, method)
	if err != nil {
		return nil, err
	}

	s.logger.Info("session opened",
		zap.String("method", method),
		zap.String("subject", session.Subject()),
		zap.String("session_id", session.ID))

	if err := s.eventPub.PublishLogin(ctx, session.Subject(), session.Address, session.ID); err != nil {
		s.logger.Warn("failed to publish login event", zap.Error(err))
	}

	return pair, nil
}

func (s *AuthService) tokens(session *core.Session, method string) (*TokenPair, error) {
	accessToken, err := s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokenizer.SessionToRefreshToken(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	metrics.SessionsIssued.WithLabelValues(method).Inc()
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.accessTTL,
	}, nil
}
