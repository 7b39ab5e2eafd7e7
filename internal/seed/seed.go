package seed

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/huddle-im/huddle/internal/conversation"
	"github.com/huddle-im/huddle/internal/roster"
)

// Data is everything a session starts from: the fixed roster, the initial
// transcript, the picker option lists and which user is "me".
type Data struct {
	CurrentUserID string                 `yaml:"current_user"`
	Users         []roster.User          `yaml:"users"`
	Messages      []conversation.Message `yaml:"messages"`
	StatusOptions []string               `yaml:"status_options"`
	EmojiOptions  []string               `yaml:"emoji_options"`
}

var defaultStatusOptions = []string{
	"Available",
	"Away",
	"Busy",
	"brb",
	"In a meeting",
	"At lunch",
}

var defaultEmojiOptions = []string{"👍", "❤️", "😂", "😮", "😢", "🎉", "👏", "🔥"}

// Default returns the built-in demo seed: five users and a short transcript
// with a few pre-applied reactions. Timestamps are relative to now so the
// transcript always reads as recent.
func Default() Data {
	now := time.Now()
	lastLogin := now.Add(-6 * time.Minute)

	return Data{
		CurrentUserID: "1",
		Users: []roster.User{
			{
				ID:        "1",
				Name:      "Iron Man",
				Avatar:    "https://cdn.britannica.com/49/182849-050-4C7FE34F/scene-Iron-Man.jpg",
				Status:    roster.StatusOnline,
				LastLogin: &lastLogin,
			},
			{
				ID:            "2",
				Name:          "Captain America",
				Avatar:        "https://cdn.britannica.com/30/182830-050-96F2ED76/Chris-Evans-title-character-Joe-Johnston-Captain.jpg",
				Status:        roster.StatusBusy,
				StatusMessage: "In a meeting",
				LastLogin:     &lastLogin,
			},
			{
				ID:            "3",
				Name:          "The Hulk",
				Avatar:        "https://queenstudios.shop/cdn/shop/files/2.Hulk1-3StatueAdvengersPost_620x.png",
				Status:        roster.StatusAway,
				StatusMessage: "brb",
				LastLogin:     &lastLogin,
			},
			{
				ID:        "4",
				Name:      "Thor",
				Avatar:    "https://cdn.britannica.com/73/182873-050-E1C686F4/Chris-Hemsworth-Thor-Thor-The-Dark-World.jpg",
				Status:    roster.StatusOnline,
				LastLogin: &lastLogin,
			},
			{
				ID:        "5",
				Name:      "Hawk Eye",
				Avatar:    "https://www.hollywoodreporter.com/wp-content/uploads/2021/07/MCDAVEN_EC081-H-2021.jpg",
				Status:    roster.StatusOffline,
				LastLogin: &lastLogin,
			},
		},
		Messages: []conversation.Message{
			{
				ID:        "1",
				SenderID:  "2",
				Text:      "Hey everyone! How's it going?",
				Timestamp: now.Add(-6 * time.Minute),
				Reactions: map[string][]string{"👍": {"1", "4"}, "❤️": {"3"}},
			},
			{
				ID:        "2",
				SenderID:  "1",
				Text:      "Just finished that project we were working on!",
				Timestamp: now.Add(-4 * time.Minute),
				Reactions: map[string][]string{"🎉": {"2", "3", "4"}},
			},
			{
				ID:        "3",
				SenderID:  "4",
				Text:      "Great job! I'll review it this afternoon.",
				Timestamp: now.Add(-3 * time.Minute),
			},
			{
				ID:        "4",
				SenderID:  "3",
				Text:      "Can someone help me with the API documentation?",
				Timestamp: now.Add(-1 * time.Minute),
			},
		},
		StatusOptions: append([]string(nil), defaultStatusOptions...),
		EmojiOptions:  append([]string(nil), defaultEmojiOptions...),
	}
}

// Load reads a YAML seed file. Option lists missing from the file fall back
// to the built-in ones; everything else must be present and valid.
func Load(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("failed to read seed file: %w", err)
	}

	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return Data{}, fmt.Errorf("failed to parse seed file: %w", err)
	}

	if len(d.StatusOptions) == 0 {
		d.StatusOptions = append([]string(nil), defaultStatusOptions...)
	}
	if len(d.EmojiOptions) == 0 {
		d.EmojiOptions = append([]string(nil), defaultEmojiOptions...)
	}
	if d.CurrentUserID == "" && len(d.Users) > 0 {
		d.CurrentUserID = d.Users[0].ID
	}

	if err := d.Validate(); err != nil {
		return Data{}, fmt.Errorf("invalid seed file %s: %w", path, err)
	}
	return d, nil
}

// Validate checks the invariants the stores rely on.
func (d Data) Validate() error {
	if len(d.Users) == 0 {
		return fmt.Errorf("seed has no users")
	}

	userIDs := make(map[string]bool, len(d.Users))
	for _, u := range d.Users {
		if u.ID == "" {
			return fmt.Errorf("user %q has an empty id", u.Name)
		}
		if userIDs[u.ID] {
			return fmt.Errorf("duplicate user id %q", u.ID)
		}
		userIDs[u.ID] = true
		if !u.Status.Valid() {
			return fmt.Errorf("user %q has invalid status %q", u.ID, u.Status)
		}
	}

	if !userIDs[d.CurrentUserID] {
		return fmt.Errorf("current user %q is not in the roster", d.CurrentUserID)
	}

	messageIDs := make(map[string]bool, len(d.Messages))
	for _, m := range d.Messages {
		if m.ID == "" {
			return fmt.Errorf("message with empty id")
		}
		if messageIDs[m.ID] {
			return fmt.Errorf("duplicate message id %q", m.ID)
		}
		messageIDs[m.ID] = true
		if !userIDs[m.SenderID] {
			return fmt.Errorf("message %q has unknown sender %q", m.ID, m.SenderID)
		}
		for emoji, users := range m.Reactions {
			for _, id := range users {
				if !userIDs[id] {
					return fmt.Errorf("message %q reaction %q references unknown user %q", m.ID, emoji, id)
				}
			}
		}
	}

	return nil
}
