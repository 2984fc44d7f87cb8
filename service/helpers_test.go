package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/actxion/auth/adapters/hasher"
	"github.com/actxion/auth/adapters/signature"
	"github.com/actxion/auth/adapters/store"
	"github.com/actxion/auth/adapters/tokenizer"
	"github.com/actxion/auth/internal/eth"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type wallet struct {
	key     *ecdsa.PrivateKey
	address string // lower-case
}

func newWallet(t *testing.T) *wallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &wallet{
		key:     key,
		address: strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex()),
	}
}

func (w *wallet) checksummed() string {
	return crypto.PubkeyToAddress(w.key.PublicKey).Hex()
}

func (w *wallet) sign(t *testing.T, message string) string {
	t.Helper()
	sig, err := eth.SignPersonal(w.key, message)
	require.NoError(t, err)
	return hexutil.Encode(sig)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Now()} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu       sync.Mutex
	logins   []string
	logouts  []string
	bindings []string
	fail     error
}

func (p *recordingPublisher) PublishLogin(_ context.Context, subject, _, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins = append(p.logins, subject)
	return p.fail
}

func (p *recordingPublisher) PublishLogout(_ context.Context, _ string, tokenID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logouts = append(p.logouts, tokenID)
	return p.fail
}

func (p *recordingPublisher) PublishWalletBinding(_ context.Context, userID, address string, bound bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	action := "unbind"
	if bound {
		action = "bind"
	}
	p.bindings = append(p.bindings, action+":"+userID+":"+address)
	return p.fail
}

type fixture struct {
	wallet      *WalletAuth
	credentials *Credentials
	accounts    *Accounts
	auth        *AuthService
	challenges  *store.MemoryChallengeStore
	users       *store.MemoryUserStore
	events      *recordingPublisher
	clock       *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	f := &fixture{
		challenges: store.NewMemoryChallengeStore().(*store.MemoryChallengeStore),
		users:      store.NewMemoryUserStore().(*store.MemoryUserStore),
		events:     &recordingPublisher{},
		clock:      newClock(),
	}

	f.wallet = NewWalletAuth(f.challenges, signature.NewPersonalVerifier(), WithClock(f.clock.Now))
	f.credentials = NewCredentials(f.users, hasher.NewBcrypt(bcrypt.MinCost))
	f.accounts = NewAccounts(f.users, f.wallet, f.events)
	f.auth = NewAuthService(
		tokenizer.NewJWTTokenizer(key),
		store.NewMemoryStore(),
		f.events,
		f.users,
		f.wallet,
		f.credentials,
	)
	return f
}
