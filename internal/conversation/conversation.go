package conversation

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is one chat entry. Reactions maps an emoji to the set of user
// ids who applied it; an emoji key never holds an empty set.
type Message struct {
	ID        string              `json:"id" yaml:"id"`
	SenderID  string              `json:"sender_id" yaml:"sender"`
	Text      string              `json:"text" yaml:"text"`
	Timestamp time.Time           `json:"timestamp" yaml:"timestamp"`
	Reactions map[string][]string `json:"reactions" yaml:"reactions,omitempty"`
}

// Store holds the conversation transcript in append order. Append order
// doubles as chronological order; messages are never re-sorted or removed.
type Store struct {
	mu       sync.RWMutex
	messages []Message
	index    map[string]int
	now      func() time.Time
}

func NewStore(seed []Message) *Store {
	s := &Store{
		messages: make([]Message, 0, len(seed)),
		index:    make(map[string]int, len(seed)),
		now:      time.Now,
	}
	for _, m := range seed {
		m.Reactions = normalizeReactions(m.Reactions)
		s.index[m.ID] = len(s.messages)
		s.messages = append(s.messages, m)
	}
	return s
}

// normalizeReactions drops empty sets and duplicate user ids from seeded data.
func normalizeReactions(reactions map[string][]string) map[string][]string {
	out := make(map[string][]string, len(reactions))
	for emoji, users := range reactions {
		seen := make(map[string]bool, len(users))
		set := make([]string, 0, len(users))
		for _, id := range users {
			if seen[id] {
				continue
			}
			seen[id] = true
			set = append(set, id)
		}
		if len(set) > 0 {
			out[emoji] = set
		}
	}
	return out
}

// Messages returns a snapshot of the transcript in append order.
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = copyMessage(m)
	}
	return out
}

func (s *Store) Get(id string) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Message{}, false
	}
	return copyMessage(s.messages[i]), true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Append adds a new message to the end of the transcript. Empty or
// all-whitespace text is rejected and reported via ok=false.
func (s *Store) Append(senderID, text string) (Message, bool) {
	if strings.TrimSpace(text) == "" {
		return Message{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	msg := Message{
		ID:        newMessageID(now),
		SenderID:  senderID,
		Text:      text,
		Timestamp: now,
		Reactions: map[string][]string{},
	}
	s.index[msg.ID] = len(s.messages)
	s.messages = append(s.messages, msg)
	return copyMessage(msg), true
}

// ToggleReaction flips userID's membership in the emoji's reaction set:
// present means remove, absent means add. Removing the last member deletes
// the emoji key. Unknown message ids are silent no-ops (found=false).
func (s *Store) ToggleReaction(messageID, emoji, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[messageID]
	if !ok {
		return false
	}

	msg := s.messages[i]
	set := msg.Reactions[emoji]
	for j, id := range set {
		if id == userID {
			set = append(set[:j:j], set[j+1:]...)
			if len(set) == 0 {
				delete(msg.Reactions, emoji)
			} else {
				msg.Reactions[emoji] = set
			}
			s.messages[i] = msg
			return true
		}
	}

	if msg.Reactions == nil {
		msg.Reactions = map[string][]string{}
	}
	msg.Reactions[emoji] = append(set, userID)
	s.messages[i] = msg
	return true
}

func copyMessage(m Message) Message {
	reactions := make(map[string][]string, len(m.Reactions))
	for emoji, users := range m.Reactions {
		reactions[emoji] = append([]string(nil), users...)
	}
	m.Reactions = reactions
	return m
}

// newMessageID prefixes a random suffix with the creation time in
// milliseconds so ids sort the same way the transcript does.
func newMessageID(t time.Time) string {
	return fmt.Sprintf("%d-%s", t.UnixMilli(), uuid.NewString()[:8])
}
