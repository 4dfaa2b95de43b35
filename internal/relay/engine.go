// internal/relay/engine.go
package relay

import "time"

// DefaultCapacity is the number of relay slots when none is configured.
const DefaultCapacity = 16

// DefaultIdle is the wake interval when no revert is pending.
const DefaultIdle = 100 * time.Millisecond

// slot is the per-relay record.
// A slot is live only after its first command.
type slot struct {
	live    bool
	current State

	scheduled bool
	deadline  time.Time
	revert    State
}

// Expired is one revert emitted by PollExpired.
type Expired struct {
	Num   int
	State State
}

// Engine owns the authoritative relay state.
// Not safe for concurrent use: exactly one goroutine (the Runner) drives it.
// It knows nothing about banks or bits.
type Engine struct {
	slots []slot
	idle  time.Duration
}

// NewEngine creates an engine with a fixed number of relay slots.
func NewEngine(capacity int, idle time.Duration) *Engine {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if idle <= 0 {
		idle = DefaultIdle
	}
	return &Engine{
		slots: make([]slot, capacity),
		idle:  idle,
	}
}

// Capacity returns the number of relay slots.
func (e *Engine) Capacity() int {
	return len(e.slots)
}

// ApplyCommand is the single mutation entry point.
//
// A non-zero duration installs (now+duration, Off) as the pending
// revert, replacing any existing one. A zero duration clears it.
// Returns true when the output must be (re)written: first command
// for the relay, state change, or a fresh schedule.
// Relay numbers outside the table are ignored (false).
func (e *Engine) ApplyCommand(num int, state State, duration time.Duration, now time.Time) bool {
	if num < 0 || num >= len(e.slots) {
		return false
	}

	s := &e.slots[num]
	changed := !s.live || s.current != state || duration > 0

	s.live = true
	s.current = state
	if duration > 0 {
		s.scheduled = true
		s.deadline = now.Add(duration)
		s.revert = Off
	} else {
		s.scheduled = false
	}

	return changed
}

// PollExpired clears and returns every schedule whose deadline has
// passed, in relay order. Each deadline fires at most once.
// The relay's current state follows the revert.
func (e *Engine) PollExpired(now time.Time) []Expired {
	var out []Expired
	for i := range e.slots {
		s := &e.slots[i]
		if !s.scheduled || now.Before(s.deadline) {
			continue
		}
		s.scheduled = false
		s.current = s.revert
		out = append(out, Expired{Num: i, State: s.revert})
	}
	return out
}

// NextTimeout returns the time until the earliest pending deadline,
// clamped to zero, or the idle interval when nothing is pending.
func (e *Engine) NextTimeout(now time.Time) time.Duration {
	var (
		next  time.Duration
		found bool
	)
	for i := range e.slots {
		s := &e.slots[i]
		if !s.scheduled {
			continue
		}
		d := s.deadline.Sub(now)
		if d < 0 {
			d = 0
		}
		if !found || d < next {
			next = d
			found = true
		}
	}
	if !found {
		return e.idle
	}
	return next
}

// State returns the commanded state of a relay.
// ok is false for relays that never received a command.
func (e *Engine) State(num int) (st State, ok bool) {
	if num < 0 || num >= len(e.slots) || !e.slots[num].live {
		return Off, false
	}
	return e.slots[num].current, true
}

// Deadline returns the pending revert deadline of a relay, if any.
func (e *Engine) Deadline(num int) (time.Time, bool) {
	if num < 0 || num >= len(e.slots) || !e.slots[num].scheduled {
		return time.Time{}, false
	}
	return e.slots[num].deadline, true
}
