package roster

import (
	"sort"
	"sync"
	"time"
)

// Status is a user's availability state.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusBusy    Status = "busy"
	StatusOffline Status = "offline"
)

// precedence orders statuses for roster display: online first, offline last.
var precedence = map[Status]int{
	StatusOnline:  0,
	StatusAway:    1,
	StatusBusy:    2,
	StatusOffline: 3,
}

func (s Status) Valid() bool {
	_, ok := precedence[s]
	return ok
}

// Precedence reports the display rank of a status, online first.
func (s Status) Precedence() int {
	return precedence[s]
}

type User struct {
	ID            string     `json:"id" yaml:"id"`
	Name          string     `json:"name" yaml:"name"`
	Avatar        string     `json:"avatar" yaml:"avatar"`
	Status        Status     `json:"status" yaml:"status"`
	StatusMessage string     `json:"status_message,omitempty" yaml:"status_message,omitempty"`
	Typing        bool       `json:"is_typing,omitempty" yaml:"-"`
	LastLogin     *time.Time `json:"last_login,omitempty" yaml:"last_login,omitempty"`
}

// Store holds the fixed set of known users. The roster never grows or
// shrinks after seeding; every mutation replaces a whole user record.
type Store struct {
	mu    sync.RWMutex
	users []User
	index map[string]int
}

func NewStore(users []User) *Store {
	s := &Store{
		users: make([]User, len(users)),
		index: make(map[string]int, len(users)),
	}
	copy(s.users, users)
	for i, u := range s.users {
		s.index[u.ID] = i
	}
	return s
}

// Users returns a snapshot of the roster in seed order.
func (s *Store) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, len(s.users))
	copy(out, s.users)
	return out
}

func (s *Store) Get(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return User{}, false
	}
	return s.users[i], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// SetStatus replaces a user's status and status message. Unknown ids and
// statuses outside the enum are silent no-ops.
func (s *Store) SetStatus(id string, status Status, message string) {
	if !status.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return
	}
	u := s.users[i]
	u.Status = status
	u.StatusMessage = message
	s.users[i] = u
}

// SetTyping replaces a user's typing flag. Unknown ids are silent no-ops.
func (s *Store) SetTyping(id string, typing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return
	}
	u := s.users[i]
	u.Typing = typing
	s.users[i] = u
}

// Ordered returns the roster sorted for display: by status precedence,
// ties keeping seed order, with excludeID (the current user) filtered out.
func (s *Store) Ordered(excludeID string) []User {
	s.mu.RLock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		if u.ID == excludeID {
			continue
		}
		out = append(out, u)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return precedence[out[i].Status] < precedence[out[j].Status]
	})
	return out
}
