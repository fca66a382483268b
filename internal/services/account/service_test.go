package account_test

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul01879/chat-app/internal/services/account"
	"github.com/rahul01879/chat-app/internal/store"
)

func newService(t *testing.T) *account.Service {
	t.Helper()
	vault, err := store.OpenVault(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { vault.Close() })
	return account.New(vault)
}

func TestRegisterLogin_RoundTrip(t *testing.T) {
	svc := newService(t)

	created, err := svc.Register("alice", "Alice A", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "Alice A", created.DisplayName)
	_, err = uuid.Parse(created.ID)
	assert.NoError(t, err, "profile ID should be a UUID")

	got, err := svc.Login("alice", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.DisplayName, got.DisplayName)
}

func TestRegister_RejectsBadDetails(t *testing.T) {
	svc := newService(t)
	cases := []struct {
		name                            string
		username, displayName, password string
	}{
		{"short username", "ab", "Ab", "longenoughpassword"},
		{"long username", "abcdefghijklmnopqrstu", "Alice", "longenoughpassword"},
		{"username with spaces", "bad name", "Bad Name", "longenoughpassword"},
		{"empty display name", "alice", "", "longenoughpassword"},
		{"short password", "alice", "Alice", "short"},
		{"empty password", "alice", "Alice", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := svc.Register(c.username, c.displayName, c.password)
			require.ErrorIs(t, err, account.ErrValidation)
		})
	}
}

func TestRegister_RejectsDuplicate(t *testing.T) {
	svc := newService(t)
	_, err := svc.Register("alice", "Alice", "correct horse battery")
	require.NoError(t, err)
	_, err = svc.Register("alice", "Alice Again", "another password!")
	require.ErrorIs(t, err, store.ErrDuplicateUser)
}

func TestLogin_UniformFailure(t *testing.T) {
	svc := newService(t)
	_, err := svc.Register("alice", "Alice", "correct horse battery")
	require.NoError(t, err)

	_, wrongPass := svc.Login("alice", "wrong password!!")
	_, unknownUser := svc.Login("mallory", "wrong password!!")
	require.ErrorIs(t, wrongPass, account.ErrInvalidCredentials)
	require.ErrorIs(t, unknownUser, account.ErrInvalidCredentials)
	assert.Equal(t, wrongPass, unknownUser, "failure modes must be indistinguishable")
}

func TestChangePassword(t *testing.T) {
	svc := newService(t)
	created, err := svc.Register("alice", "Alice", "old password 123")
	require.NoError(t, err)

	require.ErrorIs(t,
		svc.ChangePassword("alice", "not the password", "new password 456"),
		account.ErrInvalidCredentials)
	require.ErrorIs(t,
		svc.ChangePassword("alice", "old password 123", "short"),
		account.ErrValidation)

	require.NoError(t, svc.ChangePassword("alice", "old password 123", "new password 456"))

	_, err = svc.Login("alice", "old password 123")
	require.ErrorIs(t, err, account.ErrInvalidCredentials)

	got, err := svc.Login("alice", "new password 456")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID, "identity survives a password change")
}

func TestRemove(t *testing.T) {
	svc := newService(t)
	_, err := svc.Register("alice", "Alice", "correct horse battery")
	require.NoError(t, err)

	require.ErrorIs(t, svc.Remove("alice", "wrong password!!"), account.ErrInvalidCredentials)
	require.NoError(t, svc.Remove("alice", "correct horse battery"))

	_, err = svc.Login("alice", "correct horse battery")
	require.ErrorIs(t, err, account.ErrInvalidCredentials)
}

func TestList(t *testing.T) {
	svc := newService(t)
	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := svc.Register(name, name, "correct horse battery")
		require.NoError(t, err)
	}
	names, err := svc.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, names)
}
