package session

import (
	"fmt"
	"sync"

	"github.com/huddle-im/huddle/internal/conversation"
	"github.com/huddle-im/huddle/internal/roster"
)

// View names which screen the presentation layer should show.
type View string

const (
	ViewRoster       View = "roster"
	ViewConversation View = "conversation"
)

// EventKind tags a state mutation flowing down the re-render path.
type EventKind string

const (
	EventStatus   EventKind = "status"
	EventTyping   EventKind = "typing"
	EventMessage  EventKind = "message"
	EventReaction EventKind = "reaction"
	EventView     EventKind = "view"
	EventPicker   EventKind = "picker"
)

// Event is emitted after every observable mutation so the presentation
// layer can re-render from a fresh snapshot.
type Event struct {
	Kind      EventKind `json:"kind"`
	UserID    string    `json:"user_id,omitempty"`
	MessageID string    `json:"message_id,omitempty"`
}

// Options carries the picker option lists the session offers.
type Options struct {
	StatusOptions []string
	EmojiOptions  []string
}

// Session owns the stores and the view state for one chat tab: the current
// user, roster/conversation selection, transient picker flags and the draft.
// It is the only surface the presentation layer talks to.
type Session struct {
	roster *roster.Store
	conv   *conversation.Store

	currentUserID string
	statusOptions []string
	emojiOptions  []string
	allowedEmoji  map[string]bool

	mu           sync.RWMutex
	selectedID   string // "" means roster view
	statusPicker bool
	emojiPicker  string // message id, "" means closed
	draft        string

	notifyMu sync.RWMutex
	notify   func(Event)
}

func New(rs *roster.Store, cs *conversation.Store, currentUserID string, opts Options) (*Session, error) {
	if _, ok := rs.Get(currentUserID); !ok {
		return nil, fmt.Errorf("current user %q is not in the roster", currentUserID)
	}

	allowed := make(map[string]bool, len(opts.EmojiOptions))
	for _, e := range opts.EmojiOptions {
		allowed[e] = true
	}

	return &Session{
		roster:        rs,
		conv:          cs,
		currentUserID: currentUserID,
		statusOptions: append([]string(nil), opts.StatusOptions...),
		emojiOptions:  append([]string(nil), opts.EmojiOptions...),
		allowedEmoji:  allowed,
	}, nil
}

// SetNotifier registers the re-render hook. It is called after the mutation
// completes, outside any session lock, so the hook may read snapshots.
func (s *Session) SetNotifier(fn func(Event)) {
	s.notifyMu.Lock()
	s.notify = fn
	s.notifyMu.Unlock()
}

func (s *Session) emit(ev Event) {
	s.notifyMu.RLock()
	fn := s.notify
	s.notifyMu.RUnlock()
	if fn != nil {
		fn(ev)
	}
}

func (s *Session) CurrentUserID() string { return s.currentUserID }

func (s *Session) CurrentUser() roster.User {
	u, _ := s.roster.Get(s.currentUserID)
	return u
}

// Users returns the full roster in seed order, current user included.
func (s *Session) Users() []roster.User { return s.roster.Users() }

// OrderedUsers returns the roster in display order, current user excluded.
func (s *Session) OrderedUsers() []roster.User { return s.roster.Ordered(s.currentUserID) }

func (s *Session) Messages() []conversation.Message { return s.conv.Messages() }

func (s *Session) StatusOptions() []string { return append([]string(nil), s.statusOptions...) }
func (s *Session) EmojiOptions() []string  { return append([]string(nil), s.emojiOptions...) }

func (s *Session) AllowsEmoji(emoji string) bool { return s.allowedEmoji[emoji] }

// SetStatus changes the current user's status and status message, closing
// the status picker as a side effect.
func (s *Session) SetStatus(status roster.Status, message string) {
	if !status.Valid() {
		return
	}
	s.roster.SetStatus(s.currentUserID, status, message)

	s.mu.Lock()
	s.statusPicker = false
	s.mu.Unlock()

	s.emit(Event{Kind: EventStatus, UserID: s.currentUserID})
}

// SetTyping flips a user's typing flag. Only the presence simulator calls
// this; it still rides the same re-render path as every other mutation.
func (s *Session) SetTyping(userID string, typing bool) {
	s.roster.SetTyping(userID, typing)
	s.emit(Event{Kind: EventTyping, UserID: userID})
}

// SelectChat moves to the conversation view for the given user. Unknown
// ids and the current user are silent no-ops.
func (s *Session) SelectChat(userID string) bool {
	if userID == s.currentUserID {
		return false
	}
	if _, ok := s.roster.Get(userID); !ok {
		return false
	}

	s.mu.Lock()
	s.selectedID = userID
	s.mu.Unlock()

	s.emit(Event{Kind: EventView, UserID: userID})
	return true
}

// CloseChat returns to the roster view, clearing the selection.
func (s *Session) CloseChat() {
	s.mu.Lock()
	s.selectedID = ""
	s.mu.Unlock()

	s.emit(Event{Kind: EventView})
}

func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selectedID == "" {
		return ViewRoster
	}
	return ViewConversation
}

func (s *Session) SelectedUser() (roster.User, bool) {
	s.mu.RLock()
	id := s.selectedID
	s.mu.RUnlock()
	if id == "" {
		return roster.User{}, false
	}
	return s.roster.Get(id)
}

func (s *Session) UpdateDraft(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
}

func (s *Session) Draft() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

// SendMessage appends a message from the current user. The draft is cleared
// only when the append succeeds, so rejected sends keep the composed text.
func (s *Session) SendMessage(text string) (conversation.Message, bool) {
	msg, ok := s.conv.Append(s.currentUserID, text)
	if !ok {
		return conversation.Message{}, false
	}

	s.mu.Lock()
	s.draft = ""
	s.mu.Unlock()

	s.emit(Event{Kind: EventMessage, MessageID: msg.ID, UserID: s.currentUserID})
	return msg, true
}

// ToggleReaction toggles the current user's reaction on a message and
// closes the emoji picker as a side effect. Emoji outside the offered set
// and unknown message ids are silent no-ops.
func (s *Session) ToggleReaction(messageID, emoji string) bool {
	s.mu.Lock()
	s.emojiPicker = ""
	s.mu.Unlock()

	if !s.allowedEmoji[emoji] {
		return false
	}
	if !s.conv.ToggleReaction(messageID, emoji, s.currentUserID) {
		return false
	}

	s.emit(Event{Kind: EventReaction, MessageID: messageID, UserID: s.currentUserID})
	return true
}

// OpenEmojiPicker opens the picker for one message, implicitly closing any
// other open picker. Unknown message ids are silent no-ops.
func (s *Session) OpenEmojiPicker(messageID string) bool {
	if _, ok := s.conv.Get(messageID); !ok {
		return false
	}

	s.mu.Lock()
	s.emojiPicker = messageID
	s.mu.Unlock()

	s.emit(Event{Kind: EventPicker, MessageID: messageID})
	return true
}

func (s *Session) CloseEmojiPicker() {
	s.mu.Lock()
	s.emojiPicker = ""
	s.mu.Unlock()

	s.emit(Event{Kind: EventPicker})
}

// EmojiPickerTarget reports which message's picker is open, if any.
func (s *Session) EmojiPickerTarget() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emojiPicker, s.emojiPicker != ""
}

func (s *Session) ToggleStatusPicker() bool {
	s.mu.Lock()
	s.statusPicker = !s.statusPicker
	open := s.statusPicker
	s.mu.Unlock()

	s.emit(Event{Kind: EventPicker})
	return open
}

func (s *Session) StatusPickerOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusPicker
}
