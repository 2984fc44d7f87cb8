package signature

import (
	"fmt"

	"github.com/actxion/auth/core"
	"github.com/actxion/auth/internal/eth"
	"github.com/actxion/auth/ports"
	"github.com/ethereum/go-ethereum/common"
)

// PersonalVerifier verifies EIP-191 personal_sign signatures
type PersonalVerifier struct{}

// NewPersonalVerifier creates a personal_sign verifier
func NewPersonalVerifier() ports.SignatureVerifier {
	return PersonalVerifier{}
}

// Verify recovers the signer of message and compares it with address
func (PersonalVerifier) Verify(message, signature, address string) error {
	if !common.IsHexAddress(address) {
		return core.ErrSignatureMismatch
	}

	sig, err := eth.DecodeSignature(signature)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrSignatureMismatch, err)
	}

	recovered, err := eth.RecoverPersonal(message, sig)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrSignatureMismatch, err)
	}

	if recovered != common.HexToAddress(address) {
		return fmt.Errorf("%w: recovered %s", core.ErrSignatureMismatch, recovered.Hex())
	}

	return nil
}
