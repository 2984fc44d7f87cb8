package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/actxion/auth/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walletLogin(t *testing.T, f *fixture, w *wallet) *LoginResult {
	t.Helper()
	ctx := context.Background()

	message, err := f.wallet.IssueChallenge(ctx, w.address)
	require.NoError(t, err)

	result, err := f.auth.WalletLogin(ctx, w.address, w.sign(t, message))
	require.NoError(t, err)
	return result
}

func TestWalletLoginUnlinked(t *testing.T) {
	f := newFixture(t)
	w := newWallet(t)

	result := walletLogin(t, f, w)
	assert.False(t, result.Linked)
	assert.Nil(t, result.User)
	assert.Equal(t, w.address, result.Address)
	assert.Equal(t, DefaultAccessTTL, result.ExpiresIn)

	session, err := f.auth.ValidateAccessToken(context.Background(), result.AccessToken)
	require.NoError(t, err)
	assert.Empty(t, session.UserID)
	assert.Equal(t, w.address, session.Subject())
	assert.Equal(t, []string{w.address}, f.events.logins)
}

func TestWalletLoginLinked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := newWallet(t)

	user, err := f.credentials.Register(ctx, "alice@example.com", "secret1", "secret1")
	require.NoError(t, err)
	_, err = f.users.BindWallet(ctx, user.ID, w.address, "0xsig")
	require.NoError(t, err)

	result := walletLogin(t, f, w)
	assert.True(t, result.Linked)
	require.NotNil(t, result.User)
	assert.Equal(t, user.ID, result.User.ID)

	session, err := f.auth.ValidateAccessToken(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.Subject())
	assert.Equal(t, w.address, session.Address)
}

func TestWalletLoginFailure(t *testing.T) {
	f := newFixture(t)
	w := newWallet(t)

	_, err := f.auth.WalletLogin(context.Background(), w.address, "0x00")
	require.ErrorIs(t, err, core.ErrNoChallenge)
	assert.Empty(t, f.events.logins)
}

func TestPasswordLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.credentials.Register(ctx, "alice@example.com", "secret1", "secret1")
	require.NoError(t, err)

	result, err := f.auth.PasswordLogin(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.False(t, result.Linked)
	assert.Equal(t, "alice", result.User.Name)

	session, err := f.auth.ValidateAccessToken(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, "alice@example.com", session.Email)

	_, err = f.auth.PasswordLogin(ctx, "alice@example.com", "wrong-password")
	require.ErrorIs(t, err, core.ErrInvalidCredentials)
}

func TestRefreshRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	login := walletLogin(t, f, newWallet(t))

	rotated, err := f.auth.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	_, err = f.auth.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, core.ErrTokenInvalidated)

	_, err = f.auth.ValidateAccessToken(ctx, login.AccessToken)
	require.ErrorIs(t, err, core.ErrTokenInvalidated, "access tokens of a rotated refresh token are revoked")

	session, err := f.auth.ValidateAccessToken(ctx, rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, login.Address, session.Address)
}

func TestRefreshConcurrentRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	login := walletLogin(t, f, newWallet(t))

	var wins, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.auth.Refresh(ctx, login.RefreshToken)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, core.ErrTokenInvalidated):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(15), rejected.Load())
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	login := walletLogin(t, f, newWallet(t))

	require.NoError(t, f.auth.Logout(ctx, login.RefreshToken))
	assert.Len(t, f.events.logouts, 1)

	_, err := f.auth.Refresh(ctx, login.RefreshToken)
	require.ErrorIs(t, err, core.ErrTokenInvalidated)

	_, err = f.auth.ValidateAccessToken(ctx, login.AccessToken)
	require.ErrorIs(t, err, core.ErrTokenInvalidated)

	err = f.auth.Logout(ctx, "garbage")
	require.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestEventFailuresDoNotFailLogin(t *testing.T) {
	f := newFixture(t)
	f.events.fail = errors.New("broker down")

	login := walletLogin(t, f, newWallet(t))
	require.NoError(t, f.auth.Logout(context.Background(), login.RefreshToken))
}
