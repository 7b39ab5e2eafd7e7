package conversation

import (
	"testing"
	"time"
)

func seedMessages() []Message {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return []Message{
		{ID: "m1", SenderID: "2", Text: "Hey everyone!", Timestamp: base, Reactions: map[string][]string{"👍": {"1", "4"}, "❤️": {"3"}}},
		{ID: "m2", SenderID: "1", Text: "Just finished that project!", Timestamp: base.Add(2 * time.Minute), Reactions: map[string][]string{"🎉": {"2", "3", "4"}}},
		{ID: "m3", SenderID: "4", Text: "Great job!", Timestamp: base.Add(3 * time.Minute)},
	}
}

func reactionSet(t *testing.T, s *Store, messageID, emoji string) []string {
	t.Helper()
	msg, ok := s.Get(messageID)
	if !ok {
		t.Fatalf("message %q not found", messageID)
	}
	return msg.Reactions[emoji]
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestAppend(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantSent bool
	}{
		{name: "plain text", text: "hello", wantSent: true},
		{name: "empty text", text: "", wantSent: false},
		{name: "whitespace only", text: "   ", wantSent: false},
		{name: "tab and newline", text: "\t\n", wantSent: false},
		{name: "text with surrounding spaces", text: "  hi  ", wantSent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(seedMessages())
			before := s.Len()

			msg, ok := s.Append("1", tt.text)
			if ok != tt.wantSent {
				t.Fatalf("Append ok = %v, want %v", ok, tt.wantSent)
			}
			if !tt.wantSent {
				if s.Len() != before {
					t.Fatalf("rejected append changed transcript length")
				}
				return
			}

			if s.Len() != before+1 {
				t.Fatalf("Len = %d, want %d", s.Len(), before+1)
			}
			all := s.Messages()
			last := all[len(all)-1]
			if last.ID != msg.ID {
				t.Fatalf("new message is not last in iteration order")
			}
			if last.SenderID != "1" {
				t.Fatalf("SenderID = %q, want %q", last.SenderID, "1")
			}
			// Text is stored verbatim; trimming is only a rejection test.
			if last.Text != tt.text {
				t.Fatalf("Text = %q, want %q", last.Text, tt.text)
			}
			if len(last.Reactions) != 0 {
				t.Fatalf("new message has non-empty reactions: %v", last.Reactions)
			}
		})
	}
}

func TestAppendGeneratesUniqueIDs(t *testing.T) {
	s := NewStore(nil)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		msg, ok := s.Append("1", "hi")
		if !ok {
			t.Fatalf("Append rejected valid text")
		}
		if seen[msg.ID] {
			t.Fatalf("duplicate message id %q", msg.ID)
		}
		seen[msg.ID] = true
	}
}

func TestToggleReactionAlternates(t *testing.T) {
	s := NewStore(seedMessages())

	// Two consecutive toggles by the same user restore the original state.
	for i := 0; i < 3; i++ {
		s.ToggleReaction("m3", "🔥", "2")
		if !contains(reactionSet(t, s, "m3", "🔥"), "2") {
			t.Fatalf("toggle %d: user missing after add", i)
		}
		s.ToggleReaction("m3", "🔥", "2")
		if contains(reactionSet(t, s, "m3", "🔥"), "2") {
			t.Fatalf("toggle %d: user still present after remove", i)
		}
	}
}

func TestToggleReactionPrunesEmptySets(t *testing.T) {
	s := NewStore(seedMessages())

	// "❤️" on m1 has exactly one member; removing it must delete the key.
	s.ToggleReaction("m1", "❤️", "3")

	msg, _ := s.Get("m1")
	if _, ok := msg.Reactions["❤️"]; ok {
		t.Fatalf("empty reaction set was not pruned: %v", msg.Reactions)
	}
	if len(msg.Reactions["👍"]) != 2 {
		t.Fatalf("unrelated reaction set changed: %v", msg.Reactions)
	}
}

func TestToggleReactionAddsToExistingSet(t *testing.T) {
	s := NewStore(seedMessages())

	s.ToggleReaction("m1", "👍", "3")

	set := reactionSet(t, s, "m1", "👍")
	if len(set) != 3 || !contains(set, "3") {
		t.Fatalf("👍 set = %v, want the previous two members plus %q", set, "3")
	}
}

func TestToggleReactionUnknownMessage(t *testing.T) {
	s := NewStore(seedMessages())

	if s.ToggleReaction("nope", "👍", "1") {
		t.Fatalf("ToggleReaction reported success for unknown message")
	}
	if s.Len() != 3 {
		t.Fatalf("transcript changed")
	}
}

func TestNewStoreNormalizesSeed(t *testing.T) {
	s := NewStore([]Message{
		{ID: "m1", SenderID: "1", Text: "x", Reactions: map[string][]string{
			"👍": {"2", "2", "3"},
			"😂": {},
		}},
	})

	msg, _ := s.Get("m1")
	if _, ok := msg.Reactions["😂"]; ok {
		t.Fatalf("empty seeded set survived: %v", msg.Reactions)
	}
	if got := msg.Reactions["👍"]; len(got) != 2 {
		t.Fatalf("duplicate member survived: %v", got)
	}
}

func TestMessagesReturnsDeepCopy(t *testing.T) {
	s := NewStore(seedMessages())

	snap := s.Messages()
	snap[0].Reactions["👍"][0] = "mutated"
	snap[0].Reactions["💥"] = []string{"9"}

	msg, _ := s.Get("m1")
	if msg.Reactions["👍"][0] != "1" {
		t.Fatalf("snapshot mutation leaked into the store")
	}
	if _, ok := msg.Reactions["💥"]; ok {
		t.Fatalf("snapshot map insert leaked into the store")
	}
}
