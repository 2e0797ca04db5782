package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"slices"

	"golang.org/x/crypto/chacha20poly1305"
)

// minSecretLength is the minimum secret length for a 256-bit key.
const minSecretLength = 32

// Cipher selects the AEAD primitive used by the service.
type Cipher int

const (
	// CipherAESGCM seals tokens with AES-256-GCM.
	CipherAESGCM Cipher = iota
	// CipherChaCha20Poly1305 seals tokens with ChaCha20-Poly1305.
	CipherChaCha20Poly1305
)

// Service encrypts and decrypts opaque tokens with a process-wide set of
// secrets. Safe for concurrent use.
type Service struct {
	secrets []string
	cipher  Cipher
}

// Option is a functional option for configuring the service.
type Option func(*Service)

// WithChaCha20Poly1305 switches the AEAD primitive to ChaCha20-Poly1305.
func WithChaCha20Poly1305() Option {
	return func(s *Service) {
		s.cipher = CipherChaCha20Poly1305
	}
}

// New creates a token service from the given secrets. The first secret is
// used for encryption; all secrets are tried during decryption to support
// key rotation.
func New(secrets []string, opts ...Option) (*Service, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}

	for i := range secrets {
		if len(secrets[i]) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d",
				ErrSecretTooShort, i, len(secrets[i]), minSecretLength)
		}
	}

	s := &Service{
		secrets: secrets,
		cipher:  CipherAESGCM,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// GenerateSecret returns a new cryptographically secure 32-byte secret
// encoded as a 43-character base64url string, suitable for passing to New.
func GenerateSecret() (string, error) {
	b := make([]byte, minSecretLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Encrypt seals the plaintext with the primary secret and returns a
// base64url-encoded opaque token.
func (s *Service) Encrypt(plaintext []byte) (string, error) {
	aead, err := s.newAEAD(s.secrets[0])
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt authenticates and opens a token produced by Encrypt, trying each
// configured secret in order. Returns ErrDecryptionFailed for any token
// that can't be opened with any secret.
func (s *Service) Decrypt(token string) ([]byte, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	for _, secret := range s.secrets {
		aead, err := s.newAEAD(secret)
		if err != nil {
			continue
		}

		if len(sealed) < aead.NonceSize() {
			continue
		}

		nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
		if plaintext, err := aead.Open(nil, nonce, ciphertext, nil); err == nil {
			return plaintext, nil
		}
	}

	return nil, ErrDecryptionFailed
}

// newAEAD builds the configured AEAD primitive keyed by the first 32 bytes
// of the secret.
func (s *Service) newAEAD(secret string) (cipher.AEAD, error) {
	key := []byte(secret[:minSecretLength])

	if s.cipher == CipherChaCha20Poly1305 {
		return chacha20poly1305.New(key)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
