// Package protocol runs the live room session over the relay's websocket
// framing.
//
// # Overview
//
// An Engine attaches one authenticated user to one room. Connect dials
// the relay, reads room metadata and stored history, announces the user
// and then processes live frames. Outbound messages are encrypted before
// they reach the wire; inbound ones are decrypted, or kept as placeholders
// when authentication fails, so the conversation order survives unreadable
// entries.
//
// The relay echoes message and reaction frames back to every member
// including the sender. The engine leans on that: sending appends nothing
// locally, and the echo is the single code path that grows the
// conversation for everyone.
//
// # Lifecycle
//
//	Disconnected -> Connecting -> Joined -> Active
//	Active <-> Degraded (abnormal drop, manual Reconnect)
//	any -> Closed (leave, expiry, clean relay close, idle timeout)
//
// A degraded engine keeps its in-memory conversation and destruct timers;
// Reconnect re-attaches without re-reading history. Closed is terminal.
//
// # Concurrency
//
// A single run goroutine owns every mutation. API calls and timer
// callbacks post closures into it, and the read pump tags frames with
// their connection so a replaced connection's stragglers are dropped.
// Consumers watch the Events channel; slow consumers lose events, never
// block the loop.
package protocol
