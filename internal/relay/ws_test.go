package relay_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul01879/chat-app/internal/crypto"
	"github.com/rahul01879/chat-app/internal/domain"
	"github.com/rahul01879/chat-app/internal/relay"
)

// echoRoom upgrades and echoes every text frame back, the way the relay
// echoes message frames to their sender.
func echoRoom(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, msg); err != nil {
				return
			}
		}
	}))
}

func TestDial_FrameRoundTrip(t *testing.T) {
	srv := echoRoom(t)
	defer srv.Close()

	conn, err := relay.NewDialer(srv.URL).Dial(context.Background(), "A1B2C3D4")
	require.NoError(t, err)
	defer conn.Close()

	idx := 2
	out := domain.Frame{
		Type:         domain.FrameReaction,
		Username:     "alice",
		Emoji:        "🎉",
		MessageIndex: &idx,
	}
	require.NoError(t, conn.WriteFrame(out))

	got, err := conn.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, domain.FrameReaction, got.Type)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "🎉", got.Emoji)
	require.NotNil(t, got.MessageIndex)
	assert.Equal(t, 2, *got.MessageIndex)
}

func TestDial_MessageFrameCarriesCipherData(t *testing.T) {
	srv := echoRoom(t)
	defer srv.Close()

	conn, err := relay.NewDialer(srv.URL).Dial(context.Background(), "A1B2C3D4")
	require.NoError(t, err)
	defer conn.Close()

	key, err := crypto.Generate()
	require.NoError(t, err)
	defer key.Destroy()
	data, err := crypto.Encrypt("wire payload", key)
	require.NoError(t, err)

	require.NoError(t, conn.WriteFrame(domain.Frame{
		Type:     domain.FrameMessage,
		Username: "alice",
		Data:     &data,
	}))

	got, err := conn.ReadFrame()
	require.NoError(t, err)
	require.NotNil(t, got.Data)

	plain, err := crypto.Decrypt(*got.Data, key)
	require.NoError(t, err)
	assert.Equal(t, "wire payload", plain)
}

func TestDial_RefusedConnection(t *testing.T) {
	srv := echoRoom(t)
	srv.Close() // nothing listening anymore

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := relay.NewDialer(srv.URL).Dial(ctx, "A1B2C3D4")
	require.Error(t, err)
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	srv := echoRoom(t)
	defer srv.Close()

	conn, err := relay.NewDialer(srv.URL).Dial(context.Background(), "A1B2C3D4")
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())
}
