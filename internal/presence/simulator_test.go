package presence

import (
	"context"
	"testing"
	"time"

	"github.com/huddle-im/huddle/internal/roster"
)

// scriptedRand replays fixed draws so ticks are deterministic.
type scriptedRand struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (r *scriptedRand) Float64() float64 {
	v := r.floats[r.fi%len(r.floats)]
	r.fi++
	return v
}

func (r *scriptedRand) Intn(n int) int {
	v := r.ints[r.ii%len(r.ints)]
	r.ii++
	return v % n
}

func testRoster() *roster.Store {
	return roster.NewStore([]roster.User{
		{ID: "1", Name: "Me", Status: roster.StatusOnline},
		{ID: "2", Name: "Ben", Status: roster.StatusOnline},
		{ID: "3", Name: "Cleo", Status: roster.StatusAway},
	})
}

func typing(t *testing.T, rs *roster.Store, id string) bool {
	t.Helper()
	u, ok := rs.Get(id)
	if !ok {
		t.Fatalf("user %q not found", id)
	}
	return u.Typing
}

func TestTickSetsAndClearsTyping(t *testing.T) {
	rs := testRoster()
	rng := &scriptedRand{floats: []float64{0.9}, ints: []int{1}} // picks "2"
	sim := New(rs, "1", Config{TypingDuration: 20 * time.Millisecond}, rng)

	sim.tick()

	if !typing(t, rs, "2") {
		t.Fatalf("typing flag not set after tick")
	}
	if sim.pendingTimers() != 1 {
		t.Fatalf("pendingTimers = %d, want 1", sim.pendingTimers())
	}

	time.Sleep(60 * time.Millisecond)

	if typing(t, rs, "2") {
		t.Fatalf("typing flag still set after the typing duration elapsed")
	}
	if sim.pendingTimers() != 0 {
		t.Fatalf("pendingTimers = %d after fire, want 0", sim.pendingTimers())
	}
}

func TestTickBelowThresholdDoesNothing(t *testing.T) {
	rs := testRoster()
	rng := &scriptedRand{floats: []float64{0.2}, ints: []int{1}}
	sim := New(rs, "1", Config{}, rng)

	sim.tick()

	for _, u := range rs.Users() {
		if u.Typing {
			t.Fatalf("user %q typing after a below-threshold tick", u.ID)
		}
	}
	if sim.pendingTimers() != 0 {
		t.Fatalf("pendingTimers = %d, want 0", sim.pendingTimers())
	}
}

func TestTickNeverFlipsCurrentUser(t *testing.T) {
	rs := testRoster()
	rng := &scriptedRand{floats: []float64{0.9}, ints: []int{0}} // picks "1", the current user
	sim := New(rs, "1", Config{TypingDuration: 10 * time.Millisecond}, rng)

	sim.tick()

	if typing(t, rs, "1") {
		t.Fatalf("simulator set the current user typing")
	}
	if sim.pendingTimers() != 0 {
		t.Fatalf("pendingTimers = %d, want 0", sim.pendingTimers())
	}
}

func TestOverlappingTicksLastWriterWins(t *testing.T) {
	rs := testRoster()
	rng := &scriptedRand{floats: []float64{0.9}, ints: []int{1}}
	sim := New(rs, "1", Config{TypingDuration: 50 * time.Millisecond}, rng)

	sim.tick()
	time.Sleep(20 * time.Millisecond)
	sim.tick() // same user again while the first stop timer is pending

	// First timer fires and clears the flag even though the second typing
	// burst is notionally still running; that overwrite is acceptable.
	time.Sleep(45 * time.Millisecond)
	if typing(t, rs, "2") {
		t.Fatalf("typing flag survived the first stop timer")
	}

	time.Sleep(60 * time.Millisecond)
	if sim.pendingTimers() != 0 {
		t.Fatalf("pendingTimers = %d after both fired, want 0", sim.pendingTimers())
	}
}

func TestRunStopsCleanlyOnCancel(t *testing.T) {
	rs := testRoster()
	rng := &scriptedRand{floats: []float64{0.9}, ints: []int{2}} // picks "3"
	sim := New(rs, "1", Config{
		TickInterval:   5 * time.Millisecond,
		TypingDuration: time.Hour, // would clear far in the future
	}, rng)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sim.Run(ctx)
		close(done)
	}()

	// Wait for at least one tick to set the flag.
	deadline := time.After(time.Second)
	for !typing(t, rs, "3") {
		select {
		case <-deadline:
			t.Fatalf("simulator never set the typing flag")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}

	// Teardown cancelled the pending stop timer: no mutation after exit.
	if sim.pendingTimers() != 0 {
		t.Fatalf("pendingTimers = %d after cancel, want 0", sim.pendingTimers())
	}
	if !typing(t, rs, "3") {
		t.Fatalf("cancelled stop timer still cleared the flag")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.TickInterval != 5*time.Second {
		t.Fatalf("TickInterval = %v, want 5s", cfg.TickInterval)
	}
	if cfg.Threshold != 0.7 {
		t.Fatalf("Threshold = %v, want 0.7", cfg.Threshold)
	}
	if cfg.TypingDuration != 3*time.Second {
		t.Fatalf("TypingDuration = %v, want 3s", cfg.TypingDuration)
	}
}
