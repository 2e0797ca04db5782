package crypt

import "errors"

var (
	// ErrNoSecret indicates no secret was provided to the service.
	ErrNoSecret = errors.New("no secret provided for crypt service")

	// ErrSecretTooShort indicates a secret doesn't meet the minimum length
	// required for a 256-bit key.
	ErrSecretTooShort = errors.New("secret must be at least 32 characters long")

	// ErrDecryptionFailed indicates the token couldn't be authenticated and
	// decrypted. Returned for malformed, truncated, tampered, and wrong-key
	// tokens alike so callers can treat every failure as "invalid token".
	ErrDecryptionFailed = errors.New("failed to decrypt token")
)
