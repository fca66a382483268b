package domain

import (
	"context"
	"time"
)

// VaultStore persists encrypted account records keyed by username.
type VaultStore interface {
	// Put stores a new record and fails if the username is taken.
	Put(rec VaultRecord) error
	// Get loads a record; ok is false when the username is unknown.
	Get(username string) (rec VaultRecord, ok bool, err error)
	// Replace atomically overwrites an existing record.
	Replace(rec VaultRecord) error
	// Delete removes a record; deleting an unknown username is an error.
	Delete(username string) error
	// List returns all usernames in lexical order.
	List() ([]string, error)
	Close() error
}

// SessionCache keeps room keys recoverable for the life of the process.
type SessionCache interface {
	Remember(entry RecoveryEntry)
	Lookup(roomID string) (RecoveryEntry, bool)
	Forget(roomID string)
	Clear()
}

// AccountService manages vault-backed local accounts.
type AccountService interface {
	Register(username, displayName, password string) (Profile, error)
	Login(username, password string) (Profile, error)
	ChangePassword(username, oldPassword, newPassword string) error
	Remove(username, password string) error
	List() ([]string, error)
}

// RoomService creates, joins and recovers encrypted rooms.
type RoomService interface {
	// Create mints a fresh key for requestedID, or for a random room ID
	// when requestedID is empty.
	Create(username, requestedID string) (*Session, error)
	// Join accepts a full locator, a bare fragment or an ID plus key.
	Join(username, locator, portable string) (*Session, error)
	// Recover rebuilds a session from the process-local key cache.
	Recover(username, roomID string) (*Session, error)
	// Leave destroys the session key. The recovery entry survives.
	Leave(sess *Session)
	// Destroy is Leave plus a wipe of every recovery entry. Idempotent.
	Destroy(sess *Session)
}

// RelayClient is the relay's HTTP surface.
type RelayClient interface {
	RoomInfo(ctx context.Context, roomID string) (RoomInfo, error)
	History(ctx context.Context, roomID string) ([]HistoryMessage, error)
	Health(ctx context.Context) (Health, error)
}

// Conn is one live websocket attachment to a room.
type Conn interface {
	ReadFrame() (Frame, error)
	WriteFrame(f Frame) error
	Close() error
}

// Transport dials relay rooms.
type Transport interface {
	Dial(ctx context.Context, roomID string) (Conn, error)
}

// Scheduler runs keyed one-shot timers. Scheduling an existing key
// replaces its timer.
type Scheduler interface {
	Schedule(key string, d time.Duration, fn func())
	Cancel(key string)
	CancelAll()
}
