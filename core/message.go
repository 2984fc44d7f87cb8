package core

import (
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// MessagePreamble opens every message handed to a wallet for signing
const MessagePreamble = "Welcome to ACTXION. Please sign this message to verify your identity."

// FormatMessage renders the signable message for a nonce.
// The output depends on the nonce only and must stay byte-stable: verification
// recovers the signer from exactly these bytes.
func FormatMessage(nonce string) string {
	return MessagePreamble + "\n\nNonce: " + nonce
}

// NormalizeAddress validates a 0x-prefixed hex address and returns it lower-cased
func NormalizeAddress(address string) (string, error) {
	if len(address) != 2+2*common.AddressLength {
		return "", ErrInvalidAddress
	}
	if address[0] != '0' || (address[1] != 'x' && address[1] != 'X') {
		return "", ErrInvalidAddress
	}
	if !common.IsHexAddress(address) {
		return "", ErrInvalidAddress
	}
	return strings.ToLower("0x" + address[2:]), nil
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email looks like an address
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
