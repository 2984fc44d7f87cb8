package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with access-specific ones
type AccessClaims struct {
	jwt.RegisteredClaims
	RefreshID string `json:"rid"`             // ID of the refresh token
	Address   string `json:"addr,omitempty"`  // Wallet address the session was opened with
	Email     string `json:"email,omitempty"` // Account email, if any
}

// RefreshClaims carry enough of the session to mint a new access token
type RefreshClaims struct {
	jwt.RegisteredClaims
	Address string `json:"addr,omitempty"`
	Email   string `json:"email,omitempty"`
}
