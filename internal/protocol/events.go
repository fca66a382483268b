package protocol

import "github.com/rahul01879/chat-app/internal/domain"

// EventKind discriminates engine events.
type EventKind int

const (
	// EventStateChange reports a lifecycle transition.
	EventStateChange EventKind = iota

	// EventMessageAppended carries a freshly appended message and its
	// index in the conversation.
	EventMessageAppended

	// EventMessageUpdated fires when an existing message changes: a
	// tombstone, a relay-side delete or a new reaction.
	EventMessageUpdated

	// EventTypingChanged carries the rendered typing indicator line.
	EventTypingChanged

	// EventIdleLogout fires once when the inactivity deadline passes.
	// The engine closes itself right after.
	EventIdleLogout
)

// Event is what the engine pushes to its consumer. Fields beyond Kind
// are populated per kind; Message is always a copy, safe to keep.
type Event struct {
	Kind    EventKind
	State   State
	Reason  string
	Index   int
	Message domain.Message
	Typing  string
}
