package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// NonceBytes is the AES-GCM nonce size (96 bits).
const NonceBytes = 12

var (
	// ErrEncryption is returned when sealing fails for structural reasons,
	// for example an invalid key handle.
	ErrEncryption = errors.New("crypto: encryption failed")

	// ErrAuthentication is returned when the GCM tag check fails. The cause
	// is indistinguishable between a wrong key, corrupted bytes and
	// tampering, so callers must treat it as a per-message event and never
	// retry with the same key.
	ErrAuthentication = errors.New("crypto: message authentication failed")
)

// CipherData is the wire form of an encrypted payload: base64 ciphertext
// (including the 128-bit GCM tag) and the base64 nonce it was sealed with.
type CipherData struct {
	Encrypted string `json:"encrypted"`
	IV        string `json:"iv"`
}

// Encrypt seals plaintext under k with a fresh random 96-bit nonce. Nonces
// are never derived from message content or a counter; a repeat would void
// the AEAD guarantees.
func Encrypt(plaintext string, k *Key) (CipherData, error) {
	if err := Validate(k); err != nil {
		return CipherData{}, fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	aead, err := newGCM(k)
	if err != nil {
		return CipherData{}, fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	nonce := make([]byte, NonceBytes)
	if _, err := io.ReadFull(RandReader, nonce); err != nil {
		return CipherData{}, fmt.Errorf("%w: nonce: %v", ErrEncryption, err)
	}
	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)
	return CipherData{
		Encrypted: base64.StdEncoding.EncodeToString(sealed),
		IV:        base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

// Decrypt opens data under k. A failed tag check surfaces as
// ErrAuthentication; malformed base64 or a bad nonce length surface as
// ErrKeyFormat-independent decode errors so the caller can tell transport
// corruption from a key mismatch.
func Decrypt(data CipherData, k *Key) (string, error) {
	if err := Validate(k); err != nil {
		return "", err
	}
	sealed, err := base64.StdEncoding.DecodeString(data.Encrypted)
	if err != nil {
		return "", fmt.Errorf("crypto: decode ciphertext: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(data.IV)
	if err != nil {
		return "", fmt.Errorf("crypto: decode iv: %w", err)
	}
	if len(nonce) != NonceBytes {
		return "", fmt.Errorf("crypto: iv is %d bytes, want %d", len(nonce), NonceBytes)
	}
	aead, err := newGCM(k)
	if err != nil {
		return "", err
	}
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrAuthentication
	}
	return string(plaintext), nil
}

func newGCM(k *Key) (cipher.AEAD, error) {
	block, err := aes.NewCipher(k.raw[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
