package presence

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/huddle-im/huddle/internal/roster"
)

// Roster is the slice of the session surface the simulator needs.
// *session.Session satisfies it.
type Roster interface {
	Users() []roster.User
	SetTyping(userID string, typing bool)
}

// Rand is the randomness the simulator draws from; *rand.Rand satisfies it.
// Tests substitute a scripted source.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Config holds the simulation knobs. The defaults mirror the demo feel:
// roughly a 30% chance every 5 seconds that somebody starts typing for 3s.
type Config struct {
	TickInterval   time.Duration
	Threshold      float64 // a tick proceeds only when the draw exceeds this
	TypingDuration time.Duration
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = 5 * time.Second
	}
	if c.Threshold <= 0 || c.Threshold >= 1 {
		c.Threshold = 0.7
	}
	if c.TypingDuration <= 0 {
		c.TypingDuration = 3 * time.Second
	}
	return c
}

// Simulator randomly flips non-current users into a transient typing state.
// Typing indication is advisory: overlapping ticks simply overwrite the
// flag in timer-fire order, last writer wins.
type Simulator struct {
	roster        Roster
	currentUserID string
	cfg           Config
	rng           Rand

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
}

func New(r Roster, currentUserID string, cfg Config, rng Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{
		roster:        r,
		currentUserID: currentUserID,
		cfg:           cfg.withDefaults(),
		rng:           rng,
		timers:        make(map[*time.Timer]struct{}),
	}
}

// Run ticks until ctx is cancelled. On cancellation every pending
// stop-typing timer is stopped so nothing mutates state after teardown.
func (s *Simulator) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	log.Printf("presence: simulator running (tick=%s threshold=%.2f duration=%s)",
		s.cfg.TickInterval, s.cfg.Threshold, s.cfg.TypingDuration)

	for {
		select {
		case <-ctx.Done():
			s.stopTimers()
			log.Printf("presence: simulator stopped")
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Simulator) tick() {
	if s.rng.Float64() <= s.cfg.Threshold {
		return
	}

	users := s.roster.Users()
	if len(users) == 0 {
		return
	}
	picked := users[s.rng.Intn(len(users))]
	if picked.ID == s.currentUserID {
		return
	}

	s.roster.SetTyping(picked.ID, true)

	userID := picked.ID
	s.mu.Lock()
	var timer *time.Timer
	timer = time.AfterFunc(s.cfg.TypingDuration, func() {
		s.roster.SetTyping(userID, false)
		s.mu.Lock()
		delete(s.timers, timer)
		s.mu.Unlock()
	})
	s.timers[timer] = struct{}{}
	s.mu.Unlock()
}

func (s *Simulator) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t := range s.timers {
		t.Stop()
	}
	s.timers = make(map[*time.Timer]struct{})
}

// pendingTimers reports how many stop-typing timers are outstanding.
func (s *Simulator) pendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
