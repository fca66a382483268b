// Package store provides persistence for chat-app's local data.
//
// It contains concrete implementations of the domain storage interfaces.
// Account records live in a bolt database under the user's configured home
// directory; room recovery keys live in a process-local memory cache that
// is deliberately never written to disk.
//
// The package includes:
//   - Encrypted account records (BoltVault)
//   - Recoverable room keys (MemoryCache)
package store
