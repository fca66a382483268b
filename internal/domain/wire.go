package domain

import (
	"time"

	"github.com/rahul01879/chat-app/internal/crypto"
)

// FrameType discriminates websocket frames.
type FrameType string

// Frame types sent by clients.
const (
	FrameJoin     FrameType = "join"
	FrameLeaving  FrameType = "user_leaving"
	FrameMessage  FrameType = "message"
	FrameTyping   FrameType = "typing"
	FrameReaction FrameType = "reaction"
)

// Frame types originated by the relay.
const (
	FrameUserJoined     FrameType = "user_joined"
	FrameUserLeft       FrameType = "user_left"
	FrameRoomExpired    FrameType = "room_expired"
	FrameMessageDeleted FrameType = "message_deleted"
)

// Self-destruct bounds enforced by the relay, in seconds.
const (
	DestructMinSeconds     = 5
	DestructMaxSeconds     = 600
	DestructDefaultSeconds = 60
)

// ClampDestruct forces a requested self-destruct delay into the allowed
// window, substituting the default when the request is zero.
func ClampDestruct(seconds int) int {
	if seconds == 0 {
		seconds = DestructDefaultSeconds
	}
	if seconds < DestructMinSeconds {
		return DestructMinSeconds
	}
	if seconds > DestructMaxSeconds {
		return DestructMaxSeconds
	}
	return seconds
}

// Frame is the single websocket frame shape. Which fields are meaningful
// depends on Type; optional fields use pointers where zero is a valid
// value, so absence survives the JSON round trip.
type Frame struct {
	Type         FrameType          `json:"type"`
	Username     string             `json:"username,omitempty"`
	Data         *crypto.CipherData `json:"data,omitempty"`
	Notice       string             `json:"message,omitempty"`
	Timestamp    string             `json:"timestamp,omitempty"`
	IsTyping     *bool              `json:"isTyping,omitempty"`
	MessageIndex *int               `json:"messageIndex,omitempty"`
	Emoji        string             `json:"emoji,omitempty"`
	SelfDestruct bool               `json:"selfDestruct,omitempty"`
	DestructTime int                `json:"destructTime,omitempty"`
	MessageID    string             `json:"message_id,omitempty"`
	RoomID       string             `json:"room_id,omitempty"`
}

// RoomInfo is the relay's answer to a room metadata probe.
type RoomInfo struct {
	Exists        bool   `json:"exists"`
	RoomID        string `json:"room_id"`
	CreatedAt     string `json:"created_at,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
	ActiveUsers   int    `json:"active_users,omitempty"`
	TimeRemaining string `json:"time_remaining,omitempty"`
}

// HistoryMessage is one stored ciphertext returned by the history endpoint.
// The payload key differs from live frames for compatibility with the
// hosted relay.
type HistoryMessage struct {
	ID            string            `json:"id"`
	Username      string            `json:"username"`
	EncryptedData crypto.CipherData `json:"encrypted_data"`
	Timestamp     string            `json:"timestamp"`
	SelfDestruct  bool              `json:"selfDestruct"`
	DestructTime  int               `json:"destructTime,omitempty"`
}

// History is the history endpoint envelope.
type History struct {
	Messages []HistoryMessage `json:"messages"`
}

// Health is the relay liveness report.
type Health struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	ActiveRooms int    `json:"active_rooms"`
	Timestamp   string `json:"timestamp"`
}

// WireTime renders a timestamp the way the relay does.
func WireTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

// ParseWireTime parses relay timestamps, tolerating the offset form some
// deployments emit instead of Zulu time.
func ParseWireTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
