package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// FingerprintLen is the length of a hex fingerprint string.
const FingerprintLen = 20

// Fingerprint returns a short hex digest of the key's portable form, for
// humans comparing keys out of band. Two parties whose fingerprints match
// hold the same key; the digest reveals nothing about the key bytes beyond
// the first 80 bits of their SHA-256.
func Fingerprint(k *Key) (string, error) {
	portable, err := Export(k)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(portable))
	return hex.EncodeToString(sum[:FingerprintLen/2]), nil
}
