// Package main runs the room relay used by chat-app during development and
// tests. It hosts ephemeral rooms, fans encrypted frames out to everyone
// attached and keeps a bounded ciphertext history for late joiners.
//
// HTTP API
//
//	GET /
//	    Service banner: name, version, active room count and the room TTL.
//
//	GET /health
//	    Liveness report including whether the history store is reachable.
//
//	GET /room/{room_id}/info
//	    Metadata for one room: creation and expiry times, attached user
//	    count and the remaining lifetime. Expired and unknown rooms answer
//	    exists=false.
//
//	GET /room/{room_id}/history
//	    Up to 100 stored ciphertexts, oldest first. Unknown rooms answer an
//	    empty list, never an error.
//
//	WS /ws/{room_id}
//	    Attach to a room. The room is created on first attach and lives for
//	    the configured TTL. Clients send join, message, typing, reaction and
//	    user_leaving frames; the relay broadcasts message echoes, presence
//	    notices, typing updates (to everyone but the typist), reactions,
//	    message_deleted and room_expired.
//
// Behaviour
//
//   - State is held in memory by default, or in Redis when REDIS_URL is set.
//   - Rooms expire after RELAY_ROOM_TTL (default 2h); a sweep every five
//     minutes notifies each expired room, closes its connections and drops
//     its data.
//   - Self-destruct delays are clamped to [5s, 600s] with a 60s default; the
//     relay deletes the stored ciphertext when the delay lapses and tells
//     the room.
//   - The default listen address is :8080 (PORT overrides).
//
// The relay is an untrusted middleman. It never sees plaintext or room keys;
// it only stores and forwards ciphertext.
package main
