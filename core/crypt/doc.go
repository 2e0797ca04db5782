// Package crypt provides authenticated symmetric encryption of opaque
// strings, used for session-bound CSRF tokens and any other value that
// must round-trip through an untrusted client.
//
// Tokens are sealed with an AEAD cipher (AES-256-GCM by default,
// ChaCha20-Poly1305 optionally) so both confidentiality and integrity
// are verified on decryption. The service supports multiple secrets for
// key rotation: values are always encrypted with the first secret, and
// decryption tries each secret in order.
//
// Basic usage:
//
//	svc, err := crypt.New([]string{secret})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	token, err := svc.Encrypt([]byte("nonce::session-key::1700000000"))
//	if err != nil {
//		// Handle error
//	}
//
//	plaintext, err := svc.Decrypt(token)
//	if errors.Is(err, crypt.ErrDecryptionFailed) {
//		// Treat as an invalid token, never as a server error.
//	}
//
// Any malformed, truncated, tampered, or wrong-key token yields
// ErrDecryptionFailed. Callers own the payload format; the service
// imposes no structure on the plaintext.
package crypt
