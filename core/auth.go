package core

import (
	"strings"
	"time"
)

// Challenge represents an outstanding wallet authentication attempt
type Challenge struct {
	ID        string    // Unique identifier for the challenge
	Address   string    // Lower-case Ethereum address the challenge is bound to
	Nonce     string    // Random nonce embedded in the message
	Message   string    // Exact message handed to the wallet for signing
	IssuedAt  time.Time // When the challenge was created
	ExpiresAt time.Time // When the challenge expires
}

// Expired reports whether the challenge can no longer be used at now
func (c *Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// User is a persisted account record
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	WalletAddress string // empty when no wallet is bound
	Signature     string // last signature used to bind the wallet, kept for audit
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasWallet reports whether a wallet address is bound to the user
func (u *User) HasWallet() bool {
	return u.WalletAddress != ""
}

// Identity is the minimal payload produced by credential authorization
type Identity struct {
	ID    string
	Email string
	Name  string
}

// IdentityOf derives the identity payload of a user
func IdentityOf(u *User) *Identity {
	name := u.Email
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return &Identity{ID: u.ID, Email: u.Email, Name: name}
}

// Session represents an authenticated user session
type Session struct {
	ID            string    // Unique session identifier
	UserID        string    // Account id, empty when the wallet is not linked to an account
	Address       string    // Ethereum address of the user, if any
	Email         string    // Account email, if any
	IssuedAt      time.Time // When the session was created
	RefreshExpiry time.Time // When the refresh capability expires
	AccessExpiry  time.Time // When the access capability expires
	RefreshID     string    // Unique identifier for the refresh token
}

// Subject returns the stable identifier the session is issued for
func (s *Session) Subject() string {
	if s.UserID != "" {
		return s.UserID
	}
	return s.Address
}
