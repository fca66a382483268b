package room_test

import (
	"bytes"
	"encoding/base64"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul01879/chat-app/internal/crypto"
	"github.com/rahul01879/chat-app/internal/domain"
	"github.com/rahul01879/chat-app/internal/services/room"
	"github.com/rahul01879/chat-app/internal/store"
)

const origin = "https://relay.example.com"

func newService() (*room.Service, *store.MemoryCache) {
	cache := store.NewMemoryCache()
	return room.New(origin, cache), cache
}

func queryEscape(s string) string { return url.QueryEscape(s) }

func recoveryEntry(roomID, portable, fingerprint string) domain.RecoveryEntry {
	return domain.RecoveryEntry{
		RoomID:      roomID,
		Portable:    portable,
		Fingerprint: fingerprint,
		StoredAt:    time.Now(),
	}
}

// awkwardKey is a key whose base64 form contains '+' and '/', the
// characters that break locators when percent-encoding is skipped.
func awkwardKey(t *testing.T) string {
	t.Helper()
	portable := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0xFB}, 32))
	require.Contains(t, portable, "+")
	require.Contains(t, portable, "/")
	return portable
}

func TestCreate_GeneratesRoom(t *testing.T) {
	svc, _ := newService()
	sess, err := svc.Create("alice", "")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{8}$`), sess.RoomID)
	assert.Len(t, sess.Fingerprint, 20)
	assert.Equal(t, "alice", sess.Username)
	require.NoError(t, crypto.Validate(sess.Key))

	id, portable, err := room.ParseLocator(sess.Locator)
	require.NoError(t, err)
	assert.Equal(t, sess.RoomID, id)
	exported, err := crypto.Export(sess.Key)
	require.NoError(t, err)
	assert.Equal(t, exported, portable)
}

func TestCreate_RequestedIDNormalized(t *testing.T) {
	svc, _ := newService()
	sess, err := svc.Create("alice", "  myroom42 ")
	require.NoError(t, err)
	assert.Equal(t, "MYROOM42", sess.RoomID)

	_, err = svc.Create("alice", "bad room!")
	require.ErrorIs(t, err, room.ErrBadRoomID)
}

func TestJoin_LocatorRoundTrip(t *testing.T) {
	svc, _ := newService()
	created, err := svc.Create("alice", "")
	require.NoError(t, err)

	joined, err := svc.Join("bob", created.Locator, "")
	require.NoError(t, err)
	assert.Equal(t, created.RoomID, joined.RoomID)
	assert.Equal(t, created.Fingerprint, joined.Fingerprint)

	// Both ends hold the same key if a message crosses over.
	data, err := crypto.Encrypt("over the wire", created.Key)
	require.NoError(t, err)
	plain, err := crypto.Decrypt(data, joined.Key)
	require.NoError(t, err)
	assert.Equal(t, "over the wire", plain)
}

func TestJoin_PercentEncodedKeySurvives(t *testing.T) {
	svc, _ := newService()
	portable := awkwardKey(t)

	joined, err := svc.Join("alice", "ROOMID01", portable)
	require.NoError(t, err)

	id, parsed, err := room.ParseLocator(joined.Locator)
	require.NoError(t, err)
	assert.Equal(t, "ROOMID01", id)
	assert.Equal(t, portable, parsed, "locator must decode to the exact key it encoded")
}

func TestJoin_AcceptedShapes(t *testing.T) {
	svc, _ := newService()
	portable := awkwardKey(t)
	base, err := svc.Join("alice", "ROOMID01", portable)
	require.NoError(t, err)

	for name, locator := range map[string]string{
		"full link":     base.Locator,
		"fragment":      "#room=ROOMID01&key=" + queryEscape(portable),
		"bare fragment": "room=ROOMID01&key=" + queryEscape(portable),
	} {
		t.Run(name, func(t *testing.T) {
			sess, err := svc.Join("bob", locator, "")
			require.NoError(t, err)
			assert.Equal(t, "ROOMID01", sess.RoomID)
			assert.Equal(t, base.Fingerprint, sess.Fingerprint)
		})
	}
}

func TestJoin_RefusesIDWithoutKey(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Join("alice", "ROOMID01", "")
	require.ErrorIs(t, err, room.ErrKeyRequired)

	_, err = svc.Join("alice", "#room=ROOMID01", "")
	require.ErrorIs(t, err, room.ErrKeyRequired)
}

func TestJoin_RejectsGarbage(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Join("alice", "#key=onlyakey", "")
	require.ErrorIs(t, err, room.ErrBadLocator)

	_, err = svc.Join("alice", "ROOMID01", "definitely-not-base64!!!")
	require.ErrorIs(t, err, crypto.ErrKeyFormat)

	short := base64.StdEncoding.EncodeToString([]byte("too short"))
	_, err = svc.Join("alice", "ROOMID01", short)
	require.ErrorIs(t, err, crypto.ErrKeyFormat)
}

func TestRecover_RebuildsSession(t *testing.T) {
	svc, _ := newService()
	created, err := svc.Create("alice", "")
	require.NoError(t, err)
	data, err := crypto.Encrypt("before the drop", created.Key)
	require.NoError(t, err)

	svc.Leave(created)
	require.Error(t, crypto.Validate(created.Key), "leave must destroy the live key")

	recovered, err := svc.Recover("alice", created.RoomID)
	require.NoError(t, err)
	assert.Equal(t, created.Fingerprint, recovered.Fingerprint)

	plain, err := crypto.Decrypt(data, recovered.Key)
	require.NoError(t, err)
	assert.Equal(t, "before the drop", plain)
}

func TestRecover_NothingCached(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Recover("alice", "NOWHERE1")
	require.ErrorIs(t, err, room.ErrNoRecovery)
}

func TestRecover_ClearsPoisonedEntry(t *testing.T) {
	svc, cache := newService()
	cache.Remember(recoveryEntry("BADROOM1", "not base64 at all", ""))

	_, err := svc.Recover("alice", "BADROOM1")
	require.ErrorIs(t, err, room.ErrNoRecovery)

	_, ok := cache.Lookup("BADROOM1")
	assert.False(t, ok, "a poisoned entry must not linger")
}

func TestRecover_ClearsFingerprintMismatch(t *testing.T) {
	svc, cache := newService()
	cache.Remember(recoveryEntry("SWAPPED1", awkwardKey(t), "0000000000000000dead"))

	_, err := svc.Recover("alice", "SWAPPED1")
	require.ErrorIs(t, err, room.ErrNoRecovery)

	_, ok := cache.Lookup("SWAPPED1")
	assert.False(t, ok)
}

func TestDestroy_WipesEverything(t *testing.T) {
	svc, _ := newService()
	first, err := svc.Create("alice", "")
	require.NoError(t, err)
	second, err := svc.Create("alice", "")
	require.NoError(t, err)

	svc.Destroy(first)
	svc.Destroy(first) // idempotent
	svc.Destroy(nil)

	require.Error(t, crypto.Validate(first.Key))
	_, err = svc.Recover("alice", first.RoomID)
	require.ErrorIs(t, err, room.ErrNoRecovery)
	_, err = svc.Recover("alice", second.RoomID)
	require.ErrorIs(t, err, room.ErrNoRecovery, "destroy clears every room's entry")
}

func TestCreate_EntropyFailure(t *testing.T) {
	svc, _ := newService()
	orig := crypto.RandReader
	crypto.RandReader = crypto.RandFail
	defer func() { crypto.RandReader = orig }()

	_, err := svc.Create("alice", "")
	require.Error(t, err)
}
