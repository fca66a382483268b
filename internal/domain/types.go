package domain

import (
	"time"

	"github.com/rahul01879/chat-app/internal/crypto"
)

// Profile is the account payload sealed inside a vault record. It only
// exists in plaintext after a successful login.
type Profile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// VaultRecord is the at-rest form of an account: a salt and the profile
// encrypted under the password-derived key. The GCM tag doubles as the
// password check, so there is no separate hash to attack.
type VaultRecord struct {
	Username   string `json:"username"`
	Salt       string `json:"salt"`
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	CreatedAt  int64  `json:"created_at"`
}

// Session is a live room membership: the room, the key that opens it and
// the locator that reproduces both.
type Session struct {
	RoomID      string
	Key         *crypto.Key
	Fingerprint string
	Locator     string
	Username    string
	CreatedAt   time.Time
}

// RecoveryEntry caches a room key in portable form so a dropped session
// can be rejoined without pasting the locator again. Entries live only as
// long as the process. The fingerprint pins the key: an entry whose key
// no longer matches it is poisoned and must be discarded, never used.
type RecoveryEntry struct {
	RoomID      string
	Portable    string
	Fingerprint string
	StoredAt    time.Time
}

// Message is one entry in the conversation view. Entries the relay never
// saw (system notices, local errors) have an empty ServerID.
type Message struct {
	ServerID      string
	Sender        string
	Text          string
	Timestamp     time.Time
	Mine          bool
	System        bool
	SelfDestruct  bool
	DestructAfter time.Duration
	Deleted       bool
	Undecryptable bool
}

// TypingSet tracks who is typing right now. It is owned by the protocol
// engine goroutine and must not be shared without copying.
type TypingSet map[string]struct{}

// Set adds or removes a user depending on active.
func (s TypingSet) Set(username string, active bool) {
	if active {
		s[username] = struct{}{}
	} else {
		delete(s, username)
	}
}

// Describe renders the indicator line, or "" when nobody is typing.
func (s TypingSet) Describe() string {
	switch len(s) {
	case 0:
		return ""
	case 1:
		for u := range s {
			return u + " is typing..."
		}
		return ""
	case 2:
		names := make([]string, 0, 2)
		for u := range s {
			names = append(names, u)
		}
		if names[0] > names[1] {
			names[0], names[1] = names[1], names[0]
		}
		return names[0] + " and " + names[1] + " are typing..."
	default:
		return "Several people are typing..."
	}
}

// ReactionTally counts emoji reactions keyed by conversation index. The
// relay relays reactions without deduplication, so repeated reactions from
// the same user count again.
type ReactionTally map[int]map[string]int

// Add records one reaction to the message at index.
func (t ReactionTally) Add(index int, emoji string) {
	if t[index] == nil {
		t[index] = make(map[string]int)
	}
	t[index][emoji]++
}

// For returns the tally for one message, or nil.
func (t ReactionTally) For(index int) map[string]int { return t[index] }
