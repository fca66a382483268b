package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/rahul01879/chat-app/internal/domain"
)

func TestTypingSet_Describe(t *testing.T) {
	s := make(domain.TypingSet)
	if got := s.Describe(); got != "" {
		t.Fatalf("empty set: got %q, want empty", got)
	}
	s.Set("alice", true)
	if got := s.Describe(); got != "alice is typing..." {
		t.Fatalf("one user: got %q", got)
	}
	s.Set("bob", true)
	if got := s.Describe(); got != "alice and bob are typing..." {
		t.Fatalf("two users: got %q", got)
	}
	s.Set("carol", true)
	if got := s.Describe(); got != "Several people are typing..." {
		t.Fatalf("three users: got %q", got)
	}
	s.Set("alice", false)
	s.Set("bob", false)
	s.Set("carol", false)
	if got := s.Describe(); got != "" {
		t.Fatalf("cleared set: got %q, want empty", got)
	}
}

func TestReactionTally_CountsRepeats(t *testing.T) {
	tally := make(domain.ReactionTally)
	tally.Add(0, "👍")
	tally.Add(0, "👍")
	tally.Add(0, "🎉")
	tally.Add(3, "👍")
	if got := tally.For(0)["👍"]; got != 2 {
		t.Fatalf("index 0 thumbs: got %d, want 2", got)
	}
	if got := tally.For(0)["🎉"]; got != 1 {
		t.Fatalf("index 0 party: got %d, want 1", got)
	}
	if got := tally.For(3)["👍"]; got != 1 {
		t.Fatalf("index 3 thumbs: got %d, want 1", got)
	}
	if tally.For(7) != nil {
		t.Fatal("unreacted index: want nil tally")
	}
}

func TestClampDestruct(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, domain.DestructDefaultSeconds},
		{1, domain.DestructMinSeconds},
		{5, 5},
		{60, 60},
		{600, 600},
		{601, domain.DestructMaxSeconds},
		{-10, domain.DestructMinSeconds},
	}
	for _, c := range cases {
		if got := domain.ClampDestruct(c.in); got != c.want {
			t.Fatalf("ClampDestruct(%d): got %d, want %d", c.in, got, c.want)
		}
	}
}

// Index zero and an explicit typing=false both matter on the wire, so the
// optional fields must survive encoding without being dropped.
func TestFrame_OptionalFieldsSurviveJSON(t *testing.T) {
	idx := 0
	typing := false
	f := domain.Frame{
		Type:         domain.FrameReaction,
		Username:     "alice",
		Emoji:        "👍",
		MessageIndex: &idx,
		IsTyping:     &typing,
	}
	raw, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back domain.Frame
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.MessageIndex == nil || *back.MessageIndex != 0 {
		t.Fatalf("messageIndex lost: %+v", back.MessageIndex)
	}
	if back.IsTyping == nil || *back.IsTyping {
		t.Fatalf("isTyping lost: %+v", back.IsTyping)
	}
	var absent domain.Frame
	if err := json.Unmarshal([]byte(`{"type":"message"}`), &absent); err != nil {
		t.Fatalf("Unmarshal bare frame: %v", err)
	}
	if absent.MessageIndex != nil || absent.IsTyping != nil {
		t.Fatal("absent optional fields decoded as present")
	}
}
