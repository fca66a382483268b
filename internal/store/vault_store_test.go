package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul01879/chat-app/internal/domain"
	"github.com/rahul01879/chat-app/internal/store"
)

func openVault(t *testing.T) *store.BoltVault {
	t.Helper()
	v, err := store.OpenVault(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { v.Close() })
	return v
}

func record(username string) domain.VaultRecord {
	return domain.VaultRecord{
		Username:   username,
		Salt:       "c2FsdA==",
		Ciphertext: "Y2lwaGVy",
		IV:         "aXY=",
		CreatedAt:  time.Now().Unix(),
	}
}

func TestVault_PutGetRoundTrip(t *testing.T) {
	v := openVault(t)
	want := record("alice")
	require.NoError(t, v.Put(want))

	got, ok, err := v.Get("alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestVault_GetUnknownUser(t *testing.T) {
	v := openVault(t)
	_, ok, err := v.Get("nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVault_PutRejectsDuplicate(t *testing.T) {
	v := openVault(t)
	require.NoError(t, v.Put(record("alice")))
	err := v.Put(record("alice"))
	require.ErrorIs(t, err, store.ErrDuplicateUser)
}

func TestVault_ReplaceRequiresExisting(t *testing.T) {
	v := openVault(t)
	require.ErrorIs(t, v.Replace(record("ghost")), store.ErrUserNotFound)

	require.NoError(t, v.Put(record("alice")))
	updated := record("alice")
	updated.Ciphertext = "bmV3Y2lwaGVy"
	require.NoError(t, v.Replace(updated))

	got, ok, err := v.Get("alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bmV3Y2lwaGVy", got.Ciphertext)
}

func TestVault_Delete(t *testing.T) {
	v := openVault(t)
	require.NoError(t, v.Put(record("alice")))
	require.NoError(t, v.Delete("alice"))

	_, ok, err := v.Get("alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.ErrorIs(t, v.Delete("alice"), store.ErrUserNotFound)
}

func TestVault_ListSorted(t *testing.T) {
	v := openVault(t)
	for _, name := range []string{"carol", "alice", "bob"} {
		require.NoError(t, v.Put(record(name)))
	}
	names, err := v.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, names)
}

func TestVault_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.db")
	v, err := store.OpenVault(path)
	require.NoError(t, err)
	require.NoError(t, v.Put(record("alice")))
	require.NoError(t, v.Close())

	v2, err := store.OpenVault(path)
	require.NoError(t, err)
	defer v2.Close()

	_, ok, err := v2.Get("alice")
	require.NoError(t, err)
	assert.True(t, ok)
}
