package core

import "errors"

var (
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenInvalidated = errors.New("token has been invalidated")
	ErrInvalidToken     = errors.New("invalid token")

	ErrInvalidAddress    = errors.New("invalid ethereum address")
	ErrNoChallenge       = errors.New("no challenge for address")
	ErrChallengeExpired  = errors.New("challenge has expired")
	ErrSignatureMismatch = errors.New("signature does not match address")

	ErrStoreUnavailable       = errors.New("store unavailable")
	ErrDuplicateWalletBinding = errors.New("wallet address is bound to another account")
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailTaken             = errors.New("email already registered")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("all fields are required")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrPasswordMismatch   = errors.New("passwords do not match")
)
