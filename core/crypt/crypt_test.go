package crypt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomhq/loom/core/crypt"
)

const testSecret = "test-secret-key-32-characters!!!"
const testSecret2 = "another-secret-key-32-chars!!!!!"

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("no secrets", func(t *testing.T) {
		t.Parallel()

		_, err := crypt.New(nil)
		assert.ErrorIs(t, err, crypt.ErrNoSecret)

		_, err = crypt.New([]string{"", ""})
		assert.ErrorIs(t, err, crypt.ErrNoSecret)
	})

	t.Run("secret too short", func(t *testing.T) {
		t.Parallel()

		_, err := crypt.New([]string{"short"})
		assert.ErrorIs(t, err, crypt.ErrSecretTooShort)
	})

	t.Run("generated secret is accepted", func(t *testing.T) {
		t.Parallel()

		secret, err := crypt.GenerateSecret()
		require.NoError(t, err)

		_, err = crypt.New([]string{secret})
		assert.NoError(t, err)
	})
}

func TestService_RoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("encrypt and decrypt", func(t *testing.T) {
		t.Parallel()

		svc, err := crypt.New([]string{testSecret})
		require.NoError(t, err)

		token, err := svc.Encrypt([]byte("nonce::session-key::1700000000"))
		require.NoError(t, err)
		assert.NotContains(t, token, "session-key")

		plaintext, err := svc.Decrypt(token)
		require.NoError(t, err)
		assert.Equal(t, "nonce::session-key::1700000000", string(plaintext))
	})

	t.Run("chacha20poly1305 round trip", func(t *testing.T) {
		t.Parallel()

		svc, err := crypt.New([]string{testSecret}, crypt.WithChaCha20Poly1305())
		require.NoError(t, err)

		token, err := svc.Encrypt([]byte("payload"))
		require.NoError(t, err)

		plaintext, err := svc.Decrypt(token)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(plaintext))
	})

	t.Run("unique tokens for same plaintext", func(t *testing.T) {
		t.Parallel()

		svc, err := crypt.New([]string{testSecret})
		require.NoError(t, err)

		t1, err := svc.Encrypt([]byte("same"))
		require.NoError(t, err)
		t2, err := svc.Encrypt([]byte("same"))
		require.NoError(t, err)

		assert.NotEqual(t, t1, t2)
	})
}

func TestService_DecryptFailures(t *testing.T) {
	t.Parallel()

	svc, err := crypt.New([]string{testSecret})
	require.NoError(t, err)

	t.Run("malformed base64", func(t *testing.T) {
		t.Parallel()

		_, err := svc.Decrypt("not!valid!base64!")
		assert.ErrorIs(t, err, crypt.ErrDecryptionFailed)
	})

	t.Run("truncated token", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Encrypt([]byte("payload"))
		require.NoError(t, err)

		_, err = svc.Decrypt(token[:8])
		assert.ErrorIs(t, err, crypt.ErrDecryptionFailed)
	})

	t.Run("tampered token", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Encrypt([]byte("payload"))
		require.NoError(t, err)

		tampered := strings.Map(func(r rune) rune {
			if r == 'A' {
				return 'B'
			}
			return 'A'
		}, token)

		_, err = svc.Decrypt(tampered)
		assert.ErrorIs(t, err, crypt.ErrDecryptionFailed)
	})

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()

		other, err := crypt.New([]string{testSecret2})
		require.NoError(t, err)

		token, err := other.Encrypt([]byte("payload"))
		require.NoError(t, err)

		_, err = svc.Decrypt(token)
		assert.ErrorIs(t, err, crypt.ErrDecryptionFailed)
	})
}

func TestService_KeyRotation(t *testing.T) {
	t.Parallel()

	oldSvc, err := crypt.New([]string{testSecret2})
	require.NoError(t, err)

	token, err := oldSvc.Encrypt([]byte("minted before rotation"))
	require.NoError(t, err)

	// New primary secret, old secret retained for decryption.
	rotated, err := crypt.New([]string{testSecret, testSecret2})
	require.NoError(t, err)

	plaintext, err := rotated.Decrypt(token)
	require.NoError(t, err)
	assert.Equal(t, "minted before rotation", string(plaintext))
}
