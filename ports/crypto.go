package ports

// SignatureVerifier checks that signature over message was produced by address
type SignatureVerifier interface {
	// Verify returns core.ErrSignatureMismatch when the signature is undecodable
	// or recovers to a different address
	Verify(message, signature, address string) error
}

// PasswordHasher hashes and verifies account passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify compares password against an encoded hash in constant time
	Verify(encoded, password string) (bool, error)
}
