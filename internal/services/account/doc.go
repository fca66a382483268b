// Package account manages registration, login and lifecycle of local
// accounts.
//
// It enforces the username and password policy, seals profiles with a
// PBKDF2-derived key, and persists them via the domain.VaultStore. Login
// is a decryption: the AEAD tag check stands in for a password hash, and
// every authentication failure surfaces as the same error.
package account
