package relay_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul01879/chat-app/internal/relay"
)

func TestRoomInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/room/A1B2C3D4/info", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"exists": true,
			"room_id": "A1B2C3D4",
			"created_at": "2026-08-23T10:00:00+00:00",
			"expires_at": "2026-08-23T12:00:00+00:00",
			"active_users": 2,
			"time_remaining": "1:23:45.678901"
		}`))
	}))
	defer srv.Close()

	info, err := relay.NewHTTP(srv.URL).RoomInfo(context.Background(), "A1B2C3D4")
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, "A1B2C3D4", info.RoomID)
	assert.Equal(t, 2, info.ActiveUsers)
	assert.Equal(t, "2026-08-23T12:00:00+00:00", info.ExpiresAt)
}

func TestRoomInfo_MissingRoomIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"exists": false, "room_id": "NOWHERE1"}`))
	}))
	defer srv.Close()

	info, err := relay.NewHTTP(srv.URL).RoomInfo(context.Background(), "NOWHERE1")
	require.NoError(t, err)
	assert.False(t, info.Exists)
}

func TestHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/room/A1B2C3D4/history", r.URL.Path)
		w.Write([]byte(`{"messages": [
			{"id": "m1", "username": "alice",
			 "encrypted_data": {"encrypted": "Y3Q=", "iv": "bm9uY2U="},
			 "timestamp": "2026-08-23T10:00:00+00:00",
			 "selfDestruct": false, "destructTime": null},
			{"id": "m2", "username": "bob",
			 "encrypted_data": {"encrypted": "Y3Qy", "iv": "bm9uY2Uy"},
			 "timestamp": "2026-08-23T10:00:01+00:00",
			 "selfDestruct": true, "destructTime": 60}
		]}`))
	}))
	defer srv.Close()

	msgs, err := relay.NewHTTP(srv.URL).History(context.Background(), "A1B2C3D4")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "alice", msgs[0].Username)
	assert.Equal(t, "Y3Q=", msgs[0].EncryptedData.Encrypted)
	assert.False(t, msgs[0].SelfDestruct)
	assert.True(t, msgs[1].SelfDestruct)
	assert.Equal(t, 60, msgs[1].DestructTime)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"healthy","database":"connected","active_rooms":3,
			"timestamp":"2026-08-23T10:00:00+00:00"}`))
	}))
	defer srv.Close()

	h, err := relay.NewHTTP(srv.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, 3, h.ActiveRooms)
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	h, err := relay.NewHTTP(srv.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := relay.NewHTTP(srv.URL).Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := relay.NewHTTP(srv.URL).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGet_CancelledContextStopsRetrying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := relay.NewHTTP(srv.URL).Health(ctx)
	require.Error(t, err)
}
