// Package trial holds the recorded outcome of the test: trials, their
// ordered event logs and the store that keeps them for export.
package trial

import (
	"sync"
	"time"
)

// Event is one sensor edge recorded during a trial, stamped with the
// host arrival time. Events belong exclusively to their trial and are
// kept in strict arrival order; nothing is ever reordered or
// deduplicated, so two back-to-back edges on the same channel are both
// here. Counted marks the asserted events that survived the temporal
// debounce filter and contribute to the trigger counts.
type Event struct {
	Channel  int
	Asserted bool
	At       time.Time
	Offset   time.Duration // relative to trial start
	Counted  bool
}

// Trial is one bounded recording session. A trial is active while
// EndedAt is zero; once ended it is never touched again.
type Trial struct {
	Number    int
	StartedAt time.Time
	EndedAt   time.Time
	Events    []Event
	Counts    []int // debounced trigger count per channel
}

// Active reports whether the trial is still recording.
func (t *Trial) Active() bool { return t.EndedAt.IsZero() }

// Duration returns the trial length, or the elapsed time so far for an
// active trial.
func (t *Trial) Duration() time.Duration {
	if t.Active() {
		return time.Since(t.StartedAt)
	}
	return t.EndedAt.Sub(t.StartedAt)
}

// Store is the ordered collection of all trials, active or closed. It
// lives for the whole host process and only an explicit Clear empties
// it.
type Store struct {
	mu     sync.RWMutex
	trials []*Trial
	next   int
}

// NewStore creates an empty store. Trial numbering starts at 1.
func NewStore() *Store {
	return &Store{next: 1}
}

// NewTrial creates the next trial, appends it to the store and returns
// it. The caller (the session machine) guarantees at most one active
// trial exists at a time.
func (s *Store) NewTrial(start time.Time, channels int) *Trial {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &Trial{
		Number:    s.next,
		StartedAt: start,
		Counts:    make([]int, channels),
	}
	s.next++
	s.trials = append(s.trials, t)
	return t
}

// All returns a snapshot of the trial list in creation order.
func (s *Store) All() []*Trial {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Trial, len(s.trials))
	copy(out, s.trials)
	return out
}

// Len returns the number of trials held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trials)
}

// Clear drops all trials. Numbering restarts at 1.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trials = nil
	s.next = 1
}
