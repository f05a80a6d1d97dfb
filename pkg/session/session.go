// Package session owns the trial lifecycle on the host: it consumes the
// decoded message stream, keeps the mirrored view of the device's pin
// mapping, and appends arriving events to the active trial in strict
// arrival order.
package session

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/pittjames/golrt/pkg/config"
	"github.com/pittjames/golrt/pkg/rig"
	"github.com/pittjames/golrt/pkg/trial"
	"github.com/pittjames/golrt/pkg/wire"
)

// Session transition errors. Both are recoverable, user-visible
// conditions; neither mutates any state.
var (
	ErrAlreadyRecording = errors.New("session: a trial is already recording")
	ErrNotRecording     = errors.New("session: no trial is recording")
)

type state int

const (
	stateIdle state = iota
	stateRecording
)

// Machine is the two-state session machine: Idle or Recording with
// exactly one active trial. All transitions (start, end, event,
// config push) are serialized behind one mutex, so events can never be
// appended to the wrong trial and a start/end race can never be lost.
type Machine struct {
	mu     sync.Mutex
	state  state
	active *trial.Trial
	store  *trial.Store

	// Mirror of the device's channel mapping, updated only by
	// ConfigPush messages. Used to resolve the pin-relative sensor
	// index of incoming events to a logical channel; it never affects
	// trial lifecycle.
	pins       []int
	channelFor map[int]int

	// Temporal debounce for trigger counting, per channel. The raw
	// event log is never filtered; debounce only decides which
	// asserted events are Counted.
	debounce    []time.Duration
	lastTrigger []time.Time

	now func() time.Time

	cbMu      sync.RWMutex
	callbacks []func()
}

// New creates a session machine in the Idle state. The initial pin
// mirror comes from the configuration and is replaced by the device's
// startup ConfigPush as soon as it arrives.
func New(cfg *config.Config) *Machine {
	m := &Machine{
		state:       stateIdle,
		store:       trial.NewStore(),
		pins:        make([]int, len(cfg.Sensors)),
		debounce:    make([]time.Duration, len(cfg.Sensors)),
		lastTrigger: make([]time.Time, len(cfg.Sensors)),
		now:         time.Now,
	}
	for i, s := range cfg.Sensors {
		m.pins[i] = s.Pin
		m.debounce[i] = s.Debounce
	}
	m.rebuildMapping()
	return m
}

// StartTrial transitions Idle -> Recording with a freshly numbered
// trial. Returns ErrAlreadyRecording, leaving the active trial
// untouched, if one is already running.
func (m *Machine) StartTrial() (*trial.Trial, error) {
	m.mu.Lock()
	if m.state == stateRecording {
		m.mu.Unlock()
		return nil, ErrAlreadyRecording
	}

	t := m.store.NewTrial(m.now(), len(m.pins))
	m.active = t
	m.state = stateRecording
	for i := range m.lastTrigger {
		m.lastTrigger[i] = time.Time{}
	}
	m.mu.Unlock()

	m.notify()
	return t, nil
}

// EndTrial transitions Recording -> Idle, closing the active trial.
// Returns ErrNotRecording if no trial is running. Closing is the only
// cancellation primitive; it is never issued automatically, so a
// transport drop leaves the trial open for a reconnect to resume into.
func (m *Machine) EndTrial() (*trial.Trial, error) {
	m.mu.Lock()
	if m.state != stateRecording {
		m.mu.Unlock()
		return nil, ErrNotRecording
	}

	t := m.active
	t.EndedAt = m.now()
	m.active = nil
	m.state = stateIdle
	m.mu.Unlock()

	m.notify()
	return t, nil
}

// CurrentTrial returns the active trial, or nil while Idle.
func (m *Machine) CurrentTrial() *trial.Trial {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// AllTrials returns every trial recorded so far, active or closed, in
// creation order.
func (m *Machine) AllTrials() []*trial.Trial {
	return m.store.All()
}

// Snapshot returns a display copy of the active trial, decoupled from
// concurrent appends. ok is false while Idle.
func (m *Machine) Snapshot() (trial.Trial, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return trial.Trial{}, false
	}
	t := *m.active
	t.Events = append([]trial.Event(nil), m.active.Events...)
	t.Counts = append([]int(nil), m.active.Counts...)
	return t, true
}

// Store exposes the trial store (for export and explicit clearing).
func (m *Machine) Store() *trial.Store { return m.store }

// Mapping returns the mirrored channel-to-pin mapping.
func (m *Machine) Mapping() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.pins))
	copy(out, m.pins)
	return out
}

// Counts returns the active trial's per-channel trigger counts, or nil
// while Idle.
func (m *Machine) Counts() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	out := make([]int, len(m.active.Counts))
	copy(out, m.active.Counts)
	return out
}

// SetDebounce reloads the per-channel debounce windows from the
// configuration. Takes effect on the next trigger decision; already
// counted events are not revisited.
func (m *Machine) SetDebounce(cfg *config.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range cfg.Sensors {
		if i < len(m.debounce) {
			m.debounce[i] = s.Debounce
		}
	}
}

// Handle applies one decoded message. Safe to call from the transport
// reader goroutine; transitions are applied atomically in call order.
func (m *Machine) Handle(msg wire.Message) {
	switch v := msg.(type) {
	case wire.Event:
		m.handleEvent(v)
	case wire.ConfigPush:
		m.handleConfig(v)
	default:
		// Command lines never travel device to host.
		log.Printf("Ignoring unexpected message: %v", msg)
	}
}

// Run drains msgs into Handle until the channel closes. A closed
// channel means no more events will arrive; the active trial, if any,
// deliberately stays open.
func (m *Machine) Run(msgs <-chan wire.Message) {
	for msg := range msgs {
		m.Handle(msg)
	}
}

// OnUpdate registers a callback invoked after every state change
// (trial transitions, recorded events, mapping updates). Callbacks run
// outside the state lock.
func (m *Machine) OnUpdate(cb func()) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

func (m *Machine) handleEvent(ev wire.Event) {
	m.mu.Lock()

	ch, ok := m.channelFor[ev.Sensor]
	if !ok {
		m.mu.Unlock()
		log.Printf("Ignoring event from unmapped sensor index %d", ev.Sensor)
		return
	}

	if m.state != stateRecording {
		// No trial to attach the event to. Normal operation, not an
		// error.
		m.mu.Unlock()
		return
	}

	now := m.now()
	rec := trial.Event{
		Channel:  ch,
		Asserted: ev.Asserted(),
		At:       now,
		Offset:   now.Sub(m.active.StartedAt),
	}
	if rec.Asserted && m.acceptTrigger(ch, now) {
		rec.Counted = true
		m.active.Counts[ch]++
		m.lastTrigger[ch] = now
	}
	m.active.Events = append(m.active.Events, rec)
	m.mu.Unlock()

	m.notify()
}

// acceptTrigger applies the per-channel debounce window to an asserted
// event. The first trigger of a trial always counts.
func (m *Machine) acceptTrigger(ch int, now time.Time) bool {
	last := m.lastTrigger[ch]
	return last.IsZero() || now.Sub(last) >= m.debounce[ch]
}

func (m *Machine) handleConfig(cp wire.ConfigPush) {
	m.mu.Lock()
	for _, entry := range cp.Config {
		if entry.Index < 0 || entry.Index >= len(m.pins) {
			log.Printf("Ignoring config entry for out-of-range channel %d", entry.Index)
			continue
		}
		m.pins[entry.Index] = entry.Pin
	}
	m.rebuildMapping()
	m.mu.Unlock()

	m.notify()
}

// rebuildMapping recomputes the sensor-index lookup from the mirrored
// pins. Called with mu held.
func (m *Machine) rebuildMapping() {
	m.channelFor = make(map[int]int, len(m.pins))
	for ch, pin := range m.pins {
		m.channelFor[pin-int(rig.MinPin)] = ch
	}
}

func (m *Machine) notify() {
	m.cbMu.RLock()
	defer m.cbMu.RUnlock()
	for _, cb := range m.callbacks {
		cb()
	}
}
