package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/boltdb/bolt"

	"github.com/rahul01879/chat-app/internal/domain"
)

// dbTimeout bounds the wait for the bolt file lock when another process
// holds the vault open.
const dbTimeout = 5 * time.Millisecond

// profilesBucket holds one encrypted record per username.
var profilesBucket = []byte("profiles")

var (
	// ErrDuplicateUser is returned by Put when the username already has a
	// vault record.
	ErrDuplicateUser = errors.New("store: username already registered")

	// ErrUserNotFound is returned when a record matching the username does
	// not exist.
	ErrUserNotFound = errors.New("store: user not found")
)

// BoltVault persists account records in a single-file bolt database. The
// records it holds are already sealed by the caller; this layer never sees
// passwords or keys.
type BoltVault struct {
	db *bolt.DB
}

var _ domain.VaultStore = (*BoltVault)(nil)

// OpenVault opens or creates the vault database at path.
func OpenVault(path string) (*BoltVault, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: dbTimeout})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(profilesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltVault{db: db}, nil
}

// Put stores a new record, failing with ErrDuplicateUser if the username
// is taken. The existence check and the write share one transaction.
func (v *BoltVault) Put(rec domain.VaultRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return v.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(profilesBucket)
		key := []byte(rec.Username)
		if b.Get(key) != nil {
			return ErrDuplicateUser
		}
		return b.Put(key, raw)
	})
}

// Get loads the record for username; ok is false when none exists.
func (v *BoltVault) Get(username string) (domain.VaultRecord, bool, error) {
	var (
		rec   domain.VaultRecord
		found bool
	)
	err := v.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(profilesBucket).Get([]byte(username))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &rec)
	})
	if err != nil {
		return domain.VaultRecord{}, false, err
	}
	return rec, found, nil
}

// Replace overwrites an existing record in one transaction, failing with
// ErrUserNotFound if it never existed.
func (v *BoltVault) Replace(rec domain.VaultRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return v.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(profilesBucket)
		key := []byte(rec.Username)
		if b.Get(key) == nil {
			return ErrUserNotFound
		}
		return b.Put(key, raw)
	})
}

// Delete removes the record for username.
func (v *BoltVault) Delete(username string) error {
	return v.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(profilesBucket)
		key := []byte(username)
		if b.Get(key) == nil {
			return ErrUserNotFound
		}
		return b.Delete(key)
	})
}

// List returns all usernames. Bolt iterates keys in byte order, which for
// the validated username alphabet is lexical order.
func (v *BoltVault) List() ([]string, error) {
	var names []string
	err := v.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(profilesBucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Close releases the database file.
func (v *BoltVault) Close() error { return v.db.Close() }
