package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltBytes is the size of the random salt stored beside each vault
	// record.
	SaltBytes = 16

	// kdfIterations is the PBKDF2 work factor. Changing it invalidates
	// every key derived under the old count, so existing vault records
	// would stop decrypting.
	kdfIterations = 100000
)

// GenerateSalt returns a fresh random salt for key derivation.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltBytes)
	if _, err := io.ReadFull(RandReader, salt); err != nil {
		return nil, fmt.Errorf("crypto: generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey stretches a password into an AES-256 key using
// PBKDF2-HMAC-SHA256. The same password and salt always produce the same
// key; the caller owns the returned handle and should Destroy it when done.
func DeriveKey(password string, salt []byte) *Key {
	raw := pbkdf2.Key([]byte(password), salt, kdfIterations, KeyBytes, sha256.New)
	k := &Key{alg: AlgAESGCM}
	copy(k.raw[:], raw)
	wipe(raw)
	return k
}
