package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/huddle-im/huddle/internal/roster"
	"github.com/huddle-im/huddle/pkg/config"
)

type appStatus struct {
	GeneratedAt     time.Time
	Environment     string
	Port            string
	SeedPath        string
	CurrentUserID   string
	Users           int
	StatusBreakdown map[string]int
	Messages        int
	Reactions       int
	Reactors        int
	StatusOptions   int
	EmojiOptions    int
	LatestMessageAt string
	SeedWarning     string
}

type statusOptions struct {
	JSON bool
}

func parseStatusArgs(args []string) (statusOptions, error) {
	opts := statusOptions{}
	for _, arg := range args {
		switch arg {
		case "--json", "-j":
			opts.JSON = true
		default:
			return opts, fmt.Errorf("unknown status flag: %s", arg)
		}
	}
	return opts, nil
}

func runStatus(cfg *config.Config, out io.Writer, args []string) error {
	opts, err := parseStatusArgs(args)
	if err != nil {
		return err
	}

	status := collectStatus(cfg)
	if opts.JSON {
		return printStatusJSON(out, status)
	}
	printStatus(out, status)
	return nil
}

func collectStatus(cfg *config.Config) appStatus {
	status := appStatus{
		GeneratedAt: time.Now(),
		Environment: cfg.Environment,
		Port:        cfg.Port,
		SeedPath:    cfg.SeedPath,
	}
	if status.SeedPath == "" {
		status.SeedPath = "(built-in)"
	}

	data, err := loadSeed(cfg)
	if err != nil {
		status.SeedWarning = fmt.Sprintf("seed unavailable: %v", err)
		return status
	}
	if cfg.CurrentUserID != "" {
		data.CurrentUserID = cfg.CurrentUserID
	}
	if err := data.Validate(); err != nil {
		status.SeedWarning = fmt.Sprintf("seed invalid: %v", err)
		return status
	}

	status.CurrentUserID = data.CurrentUserID
	status.Users = len(data.Users)
	status.Messages = len(data.Messages)
	status.StatusOptions = len(data.StatusOptions)
	status.EmojiOptions = len(data.EmojiOptions)

	status.StatusBreakdown = make(map[string]int)
	for _, u := range data.Users {
		status.StatusBreakdown[string(u.Status)]++
	}

	var latest time.Time
	for _, m := range data.Messages {
		status.Reactions += len(m.Reactions)
		for _, who := range m.Reactions {
			status.Reactors += len(who)
		}
		if m.Timestamp.After(latest) {
			latest = m.Timestamp
		}
	}
	if !latest.IsZero() {
		status.LatestMessageAt = latest.Format(time.RFC3339)
	}

	return status
}

func formatTimestamp(value string) string {
	if value == "" {
		return "n/a"
	}
	return value
}

func printStatus(out io.Writer, status appStatus) {
	fmt.Fprintln(out, "Huddle Status")
	fmt.Fprintf(out, "Generated at: %s\n", status.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "Environment : %s\n", status.Environment)
	fmt.Fprintf(out, "Port        : %s\n", status.Port)
	fmt.Fprintf(out, "Seed        : %s\n", status.SeedPath)
	fmt.Fprintln(out)

	if status.SeedWarning != "" {
		fmt.Fprintf(out, "Warning: %s\n", status.SeedWarning)
		return
	}

	fmt.Fprintln(out, "Seed data")
	fmt.Fprintf(out, "  Current user      : %s\n", status.CurrentUserID)
	fmt.Fprintf(out, "  Users             : %d\n", status.Users)

	statuses := make([]string, 0, len(status.StatusBreakdown))
	for s := range status.StatusBreakdown {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool {
		return roster.Status(statuses[i]).Precedence() < roster.Status(statuses[j]).Precedence()
	})
	for _, s := range statuses {
		fmt.Fprintf(out, "    %-15s : %d\n", s, status.StatusBreakdown[s])
	}

	fmt.Fprintf(out, "  Messages          : %d\n", status.Messages)
	fmt.Fprintf(out, "  Reaction sets     : %d\n", status.Reactions)
	fmt.Fprintf(out, "  Total reactors    : %d\n", status.Reactors)
	fmt.Fprintf(out, "  Status options    : %d\n", status.StatusOptions)
	fmt.Fprintf(out, "  Emoji options     : %d\n", status.EmojiOptions)
	fmt.Fprintf(out, "  Latest message at : %s\n", formatTimestamp(status.LatestMessageAt))
}

func printStatusJSON(out io.Writer, status appStatus) error {
	payload := map[string]any{
		"generated_at": status.GeneratedAt.Format(time.RFC3339),
		"environment":  status.Environment,
		"port":         status.Port,
		"seed_path":    status.SeedPath,
		"seed_ready":   status.SeedWarning == "",
		"seed": map[string]any{
			"current_user":      status.CurrentUserID,
			"users":             status.Users,
			"status_breakdown":  status.StatusBreakdown,
			"messages":          status.Messages,
			"reaction_sets":     status.Reactions,
			"total_reactors":    status.Reactors,
			"status_options":    status.StatusOptions,
			"emoji_options":     status.EmojiOptions,
			"latest_message_at": formatTimestamp(status.LatestMessageAt),
		},
		"warnings": map[string]any{
			"seed": status.SeedWarning,
		},
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
