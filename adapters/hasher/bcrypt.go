package hasher

import (
	"errors"
	"fmt"

	"github.com/actxion/auth/ports"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches the cost accounts have always been hashed with
const DefaultBcryptCost = 12

// Bcrypt hashes passwords with bcrypt
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher; a cost outside bcrypt's range falls back to the default
func NewBcrypt(cost int) ports.PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &Bcrypt{cost: cost}
}

// Hash returns the bcrypt encoding of password
func (b *Bcrypt) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify compares password with a bcrypt hash
func (b *Bcrypt) Verify(encoded, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
}
