package store

import (
	"context"
	"sync"
	"time"

	"github.com/actxion/auth/core"
	"github.com/actxion/auth/ports"
	"github.com/google/uuid"
)

// MemoryUserStore keeps user accounts in process memory
type MemoryUserStore struct {
	users    map[string]*core.User
	byEmail  map[string]string
	byWallet map[string]string
	mu       sync.RWMutex
}

// NewMemoryUserStore creates an in-memory user store
func NewMemoryUserStore() ports.UserStore {
	return &MemoryUserStore{
		users:    make(map[string]*core.User),
		byEmail:  make(map[string]string),
		byWallet: make(map[string]string),
	}
}

// Create inserts a user, assigning an id when missing
func (s *MemoryUserStore) Create(ctx context.Context, user *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[user.Email]; taken {
		return core.ErrEmailTaken
	}
	if user.WalletAddress != "" {
		if _, taken := s.byWallet[user.WalletAddress]; taken {
			return core.ErrDuplicateWalletBinding
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	s.users[user.ID] = &stored
	s.byEmail[user.Email] = user.ID
	if user.WalletAddress != "" {
		s.byWallet[user.WalletAddress] = user.ID
	}

	return nil
}

// FindByID returns the user with id
func (s *MemoryUserStore) FindByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookup(id)
}

// FindByEmail returns the user registered with email
func (s *MemoryUserStore) FindByEmail(ctx context.Context, email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookup(s.byEmail[email])
}

// FindByWallet returns the user owning address
func (s *MemoryUserStore) FindByWallet(ctx context.Context, address string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookup(s.byWallet[address])
}

// BindWallet attaches address to the user unless another user owns it
func (s *MemoryUserStore) BindWallet(ctx context.Context, userID, address, signature string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	if owner, taken := s.byWallet[address]; taken && owner != userID {
		return nil, core.ErrDuplicateWalletBinding
	}

	if u.WalletAddress != "" {
		delete(s.byWallet, u.WalletAddress)
	}
	u.WalletAddress = address
	u.Signature = signature
	u.UpdatedAt = time.Now().UTC()
	s.byWallet[address] = userID

	c := *u
	return &c, nil
}

// UnbindWallet clears the wallet address and signature of the user
func (s *MemoryUserStore) UnbindWallet(ctx context.Context, userID string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, core.ErrUserNotFound
	}

	if u.WalletAddress != "" {
		delete(s.byWallet, u.WalletAddress)
	}
	u.WalletAddress = ""
	u.Signature = ""
	u.UpdatedAt = time.Now().UTC()

	c := *u
	return &c, nil
}

func (s *MemoryUserStore) lookup(id string) (*core.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	c := *u
	return &c, nil
}
