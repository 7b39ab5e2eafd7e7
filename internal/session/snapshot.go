package session

import (
	"github.com/huddle-im/huddle/internal/conversation"
	"github.com/huddle-im/huddle/internal/roster"
)

// Snapshot is the complete render state for one tab. The presentation
// layer draws from this and nothing else.
type Snapshot struct {
	CurrentUser   roster.User            `json:"current_user"`
	Users         []roster.User          `json:"users"`
	Messages      []conversation.Message `json:"messages"`
	View          View                   `json:"view"`
	SelectedUser  *roster.User           `json:"selected_user,omitempty"`
	StatusPicker  bool                   `json:"status_picker_open"`
	EmojiPicker   string                 `json:"emoji_picker_message_id,omitempty"`
	Draft         string                 `json:"draft"`
	StatusOptions []string               `json:"status_options"`
	EmojiOptions  []string               `json:"emoji_options"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		CurrentUser:   s.CurrentUser(),
		Users:         s.OrderedUsers(),
		Messages:      s.Messages(),
		StatusOptions: s.StatusOptions(),
		EmojiOptions:  s.EmojiOptions(),
	}

	s.mu.RLock()
	snap.StatusPicker = s.statusPicker
	snap.EmojiPicker = s.emojiPicker
	snap.Draft = s.draft
	selectedID := s.selectedID
	s.mu.RUnlock()

	if selectedID == "" {
		snap.View = ViewRoster
	} else {
		snap.View = ViewConversation
		if u, ok := s.roster.Get(selectedID); ok {
			snap.SelectedUser = &u
		}
	}
	return snap
}
