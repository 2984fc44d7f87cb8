package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/actxion/auth/core"
	"github.com/actxion/auth/internal/metrics"
	"github.com/actxion/auth/ports"
	"go.uber.org/zap"
)

const (
	actionConnect    = "connect"
	actionDisconnect = "disconnect"
)

// Accounts links wallets to registered accounts
type Accounts struct {
	users    ports.UserStore
	wallet   *WalletAuth
	eventPub ports.EventPublisher
	logger   *zap.Logger
}

// NewAccounts creates the account linking service
func NewAccounts(users ports.UserStore, wallet *WalletAuth, eventPub ports.EventPublisher, opts ...Option) *Accounts {
	o := newOptions(opts)
	return &Accounts{
		users:    users,
		wallet:   wallet,
		eventPub: eventPub,
		logger:   o.logger.Named("accounts"),
	}
}

// Profile returns the account of userID
func (a *Accounts) Profile(ctx context.Context, userID string) (*core.User, error) {
	return a.users.FindByID(ctx, userID)
}

// ConnectWallet binds address to userID. The caller must have signed the
// challenge previously issued for address.
func (a *Accounts) ConnectWallet(ctx context.Context, userID, address, signature string) (*core.User, error) {
	user, err := a.connect(ctx, userID, address, signature)
	metrics.WalletBindings.WithLabelValues(actionConnect, bindingResult(err)).Inc()
	if err != nil {
		a.logger.Warn("wallet connect failed",
			zap.String("user_id", userID),
			zap.String("address", address),
			zap.Error(err))
		return nil, err
	}

	a.logger.Info("wallet connected", zap.String("user_id", userID), zap.String("address", user.WalletAddress))
	a.publish(ctx, userID, user.WalletAddress, true)
	return user, nil
}

func (a *Accounts) connect(ctx context.Context, userID, address, signature string) (*core.User, error) {
	if _, err := a.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	addr, err := a.wallet.Verify(ctx, address, signature)
	if err != nil {
		return nil, fmt.Errorf("wallet ownership not proven: %w", err)
	}

	return a.users.BindWallet(ctx, userID, addr, signature)
}

// DisconnectWallet removes the wallet bound to userID, if any
func (a *Accounts) DisconnectWallet(ctx context.Context, userID string) (*core.User, error) {
	before, err := a.users.FindByID(ctx, userID)
	if err != nil {
		metrics.WalletBindings.WithLabelValues(actionDisconnect, bindingResult(err)).Inc()
		return nil, err
	}

	user, err := a.users.UnbindWallet(ctx, userID)
	metrics.WalletBindings.WithLabelValues(actionDisconnect, bindingResult(err)).Inc()
	if err != nil {
		return nil, err
	}

	if before.HasWallet() {
		a.logger.Info("wallet disconnected", zap.String("user_id", userID), zap.String("address", before.WalletAddress))
		a.publish(ctx, userID, before.WalletAddress, false)
	}
	return user, nil
}

func (a *Accounts) publish(ctx context.Context, userID, address string, bound bool) {
	if err := a.eventPub.PublishWalletBinding(ctx, userID, address, bound); err != nil {
		// the binding is already persisted
		a.logger.Warn("failed to publish wallet binding event", zap.Error(err))
	}
}

func bindingResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, core.ErrStoreUnavailable):
		return metrics.ResultUnavailable
	default:
		return metrics.ResultInvalid
	}
}
