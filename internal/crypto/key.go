package crypto

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	// KeyBytes is the AES-256 key size.
	KeyBytes = 32
	// AlgAESGCM identifies the single AEAD suite used by the application.
	AlgAESGCM = "AES-GCM"
)

var (
	// ErrKeyFormat is returned when an imported key does not decode to
	// exactly KeyBytes bytes. A truncated key would import "fine" and then
	// fail every decrypt, so this is a hard error, not a warning.
	ErrKeyFormat = errors.New("crypto: invalid key format")

	// ErrInvalidKey is returned by Validate when a key handle is nil,
	// destroyed, or carries the wrong algorithm.
	ErrInvalidKey = errors.New("crypto: invalid key")
)

// Key is an opaque handle around 256-bit AES-GCM key material. The raw
// bytes never leave the handle except through Export; in particular the
// handle is safe to pass to %v formatting.
type Key struct {
	raw       [KeyBytes]byte
	alg       string
	destroyed bool
}

// Generate creates a fresh random key. Failure of the entropy source is
// unrecoverable and reported as an error.
func Generate() (*Key, error) {
	k := &Key{alg: AlgAESGCM}
	if _, err := io.ReadFull(RandReader, k.raw[:]); err != nil {
		return nil, fmt.Errorf("crypto: generate key: %w", err)
	}
	return k, nil
}

// Import rebuilds a key from its portable base64 form. The decoded material
// must be exactly KeyBytes long; anything else fails with ErrKeyFormat.
func Import(portable string) (*Key, error) {
	raw, err := base64.StdEncoding.DecodeString(portable)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFormat, err)
	}
	if len(raw) != KeyBytes {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrKeyFormat, len(raw), KeyBytes)
	}
	k := &Key{alg: AlgAESGCM}
	copy(k.raw[:], raw)
	wipe(raw)
	return k, nil
}

// Export returns the portable base64 encoding of the key material. Import
// of the returned string yields an equivalent key.
func Export(k *Key) (string, error) {
	if err := Validate(k); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(k.raw[:]), nil
}

// Validate performs a structural check of the handle (algorithm identity
// and liveness) without touching the key bytes. Every encrypt/decrypt/export
// path calls it first so a bad handle fails fast with an actionable error
// instead of deep inside a primitive.
func Validate(k *Key) error {
	switch {
	case k == nil:
		return fmt.Errorf("%w: no key", ErrInvalidKey)
	case k.destroyed:
		return fmt.Errorf("%w: key has been destroyed", ErrInvalidKey)
	case k.alg != AlgAESGCM:
		return fmt.Errorf("%w: algorithm %q", ErrInvalidKey, k.alg)
	}
	return nil
}

// Destroy zeroes the key material. The handle fails Validate afterwards.
// Destroy is idempotent.
func (k *Key) Destroy() {
	if k == nil {
		return
	}
	wipe(k.raw[:])
	k.destroyed = true
}

// String redacts the key material.
func (k *Key) String() string {
	return "crypto.Key(" + AlgAESGCM + ", redacted)"
}

// wipe overwrites b with zeros in a constant-time friendly way.
func wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	zero := make([]byte, len(b))
	subtle.ConstantTimeCopy(1, b, zero)
}
