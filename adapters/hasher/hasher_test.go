package hasher

import (
	"strings"
	"testing"

	"github.com/actxion/auth/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashers(t *testing.T) {
	hashers := map[string]ports.PasswordHasher{
		"bcrypt": NewBcrypt(bcrypt.MinCost),
		"argon2id": NewArgon2(Argon2Params{
			Memory:      8 * 1024,
			Iterations:  1,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		}),
	}

	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			encoded, err := h.Hash("correct horse")
			require.NoError(t, err)
			assert.NotContains(t, encoded, "correct horse")

			ok, err := h.Verify(encoded, "correct horse")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = h.Verify(encoded, "correct hors")
			require.NoError(t, err)
			assert.False(t, ok)

			again, err := h.Hash("correct horse")
			require.NoError(t, err)
			assert.NotEqual(t, encoded, again, "hashes must be salted")
		})
	}
}

func TestArgon2Encoding(t *testing.T) {
	h := NewArgon2(Argon2Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

	encoded, err := h.Hash("secret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=8192,t=1,p=1$"))

	_, err = h.Verify("$argon2i$v=19$m=1,t=1,p=1$AA$AA", "secret")
	require.ErrorIs(t, err, ErrInvalidHash)

	_, err = h.Verify("$argon2id$v=18$m=1,t=1,p=1$AA$AA", "secret")
	require.ErrorIs(t, err, ErrIncompatibleVersion)

	_, err = h.Verify("garbage", "secret")
	require.ErrorIs(t, err, ErrInvalidHash)

	for _, zero := range []string{
		"$argon2id$v=19$m=8192,t=0,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		"$argon2id$v=19$m=8192,t=1,p=0$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
	} {
		require.NotPanics(t, func() {
			_, err = h.Verify(zero, "secret")
		})
		require.ErrorIs(t, err, ErrInvalidHash, zero)
	}
}

func TestBcryptCostFallback(t *testing.T) {
	h := NewBcrypt(0).(*Bcrypt)
	assert.Equal(t, DefaultBcryptCost, h.cost)

	_, err := h.Verify("not-a-bcrypt-hash", "x")
	require.ErrorIs(t, err, ErrInvalidHash)
}
