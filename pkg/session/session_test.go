package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pittjames/golrt/pkg/config"
	"github.com/pittjames/golrt/pkg/wire"
)

// fakeClock hands out strictly increasing timestamps one step apart.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC), step: step}
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func newMachine(t *testing.T, step time.Duration) *Machine {
	t.Helper()
	m := New(config.Default())
	m.now = newFakeClock(step).now
	return m
}

func TestStartTrial(t *testing.T) {
	m := newMachine(t, time.Millisecond)

	tr, err := m.StartTrial()
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Number)
	assert.True(t, tr.Active())
	assert.Same(t, tr, m.CurrentTrial())
}

// StartTrial while already recording is rejected and the running trial
// is left untouched.
func TestStartTrial_AlreadyRecording(t *testing.T) {
	m := newMachine(t, time.Millisecond)

	first, err := m.StartTrial()
	require.NoError(t, err)

	second, err := m.StartTrial()
	assert.ErrorIs(t, err, ErrAlreadyRecording)
	assert.Nil(t, second)
	assert.Same(t, first, m.CurrentTrial())
	assert.Len(t, m.AllTrials(), 1)
}

func TestEndTrial(t *testing.T) {
	m := newMachine(t, time.Millisecond)

	started, err := m.StartTrial()
	require.NoError(t, err)

	ended, err := m.EndTrial()
	require.NoError(t, err)
	assert.Same(t, started, ended)
	assert.False(t, ended.Active())
	assert.Nil(t, m.CurrentTrial())

	// The closed trial stays in the store.
	trials := m.AllTrials()
	require.Len(t, trials, 1)
	assert.Same(t, ended, trials[0])
}

func TestEndTrial_NotRecording(t *testing.T) {
	m := newMachine(t, time.Millisecond)

	tr, err := m.EndTrial()
	assert.ErrorIs(t, err, ErrNotRecording)
	assert.Nil(t, tr)
	assert.Empty(t, m.AllTrials())
}

// Device emits an assert then a release on channel 0: the active trial
// holds exactly those two events, in that order.
func TestHandle_EventsRecordedInOrder(t *testing.T) {
	m := newMachine(t, time.Millisecond)
	tr, err := m.StartTrial()
	require.NoError(t, err)

	m.Handle(wire.Event{Sensor: 0, State: wire.StateAsserted})
	m.Handle(wire.Event{Sensor: 0, State: wire.StateReleased})

	require.Len(t, tr.Events, 2)
	assert.Equal(t, 0, tr.Events[0].Channel)
	assert.True(t, tr.Events[0].Asserted)
	assert.Equal(t, 0, tr.Events[1].Channel)
	assert.False(t, tr.Events[1].Asserted)
	assert.True(t, tr.Events[1].At.After(tr.Events[0].At))
	assert.Greater(t, tr.Events[1].Offset, tr.Events[0].Offset)
}

// One recorded event per delivered message, back-to-back duplicates
// included; nothing is deduplicated or reordered.
func TestHandle_NoEventLost(t *testing.T) {
	m := newMachine(t, time.Millisecond)
	tr, err := m.StartTrial()
	require.NoError(t, err)

	deliveries := []wire.Event{
		{Sensor: 0, State: 1},
		{Sensor: 0, State: 1},
		{Sensor: 1, State: 1},
		{Sensor: 0, State: 0},
		{Sensor: 1, State: 0},
	}
	for _, ev := range deliveries {
		m.Handle(ev)
	}

	require.Len(t, tr.Events, len(deliveries))
	for i, ev := range deliveries {
		assert.Equal(t, ev.Sensor, tr.Events[i].Channel)
		assert.Equal(t, ev.State == 1, tr.Events[i].Asserted)
	}
}

// Events arriving while Idle are discarded; they never appear in any
// trial, past or future.
func TestHandle_IdleEventsDiscarded(t *testing.T) {
	m := newMachine(t, time.Millisecond)

	m.Handle(wire.Event{Sensor: 0, State: 1})

	tr, err := m.StartTrial()
	require.NoError(t, err)
	assert.Empty(t, tr.Events)

	_, err = m.EndTrial()
	require.NoError(t, err)

	m.Handle(wire.Event{Sensor: 0, State: 1})
	assert.Empty(t, tr.Events)
}

func TestHandle_UnmappedSensorDiscarded(t *testing.T) {
	m := newMachine(t, time.Millisecond)
	tr, err := m.StartTrial()
	require.NoError(t, err)

	m.Handle(wire.Event{Sensor: 9, State: 1}) // no channel on pin 11
	assert.Empty(t, tr.Events)
}

// Startup push [{0,2},{1,3}] mirrors as channel0->pin2, channel1->pin3.
func TestHandle_ConfigPushMirrors(t *testing.T) {
	m := newMachine(t, time.Millisecond)

	m.Handle(wire.ConfigPush{Config: []wire.ChannelPin{{Index: 0, Pin: 2}, {Index: 1, Pin: 3}}})
	assert.Equal(t, []int{2, 3}, m.Mapping())

	// Remap confirmation moves channel 0 to pin 5; events now arrive
	// with sensor index 3 and must route to channel 0.
	m.Handle(wire.ConfigPush{Config: []wire.ChannelPin{{Index: 0, Pin: 5}, {Index: 1, Pin: 3}}})
	assert.Equal(t, []int{5, 3}, m.Mapping())

	tr, err := m.StartTrial()
	require.NoError(t, err)
	m.Handle(wire.Event{Sensor: 3, State: 1})
	require.Len(t, tr.Events, 1)
	assert.Equal(t, 0, tr.Events[0].Channel)
}

func TestHandle_ConfigPushOutOfRangeIgnored(t *testing.T) {
	m := newMachine(t, time.Millisecond)

	m.Handle(wire.ConfigPush{Config: []wire.ChannelPin{{Index: 5, Pin: 9}, {Index: 1, Pin: 7}}})
	assert.Equal(t, []int{2, 7}, m.Mapping())
}

// Asserted events inside a channel's debounce window are recorded but
// not counted; the raw log keeps everything.
func TestHandle_DebouncedCounting(t *testing.T) {
	cfg := config.Default()
	cfg.Sensors[0].Debounce = 200 * time.Millisecond
	m := New(cfg)
	m.now = newFakeClock(50 * time.Millisecond).now

	tr, err := m.StartTrial()
	require.NoError(t, err)

	// 50 ms apart: first counts, next three bounce, the fifth is 200 ms
	// past the first and counts again.
	for i := 0; i < 5; i++ {
		m.Handle(wire.Event{Sensor: 0, State: 1})
	}

	assert.Len(t, tr.Events, 5)
	assert.Equal(t, []int{2, 0}, m.Counts())
	assert.True(t, tr.Events[0].Counted)
	assert.False(t, tr.Events[1].Counted)
	assert.False(t, tr.Events[2].Counted)
	assert.False(t, tr.Events[3].Counted)
	assert.True(t, tr.Events[4].Counted)
}

func TestHandle_ReleasesNeverCounted(t *testing.T) {
	m := newMachine(t, time.Second)
	tr, err := m.StartTrial()
	require.NoError(t, err)

	m.Handle(wire.Event{Sensor: 0, State: 0})
	m.Handle(wire.Event{Sensor: 0, State: 0})

	assert.Len(t, tr.Events, 2)
	assert.Equal(t, []int{0, 0}, m.Counts())
}

// Debounce windows are per trial: a new trial counts its first trigger
// regardless of when the previous trial's last trigger fired.
func TestStartTrial_ResetsDebounce(t *testing.T) {
	m := newMachine(t, time.Millisecond)

	_, err := m.StartTrial()
	require.NoError(t, err)
	m.Handle(wire.Event{Sensor: 0, State: 1})
	_, err = m.EndTrial()
	require.NoError(t, err)

	tr, err := m.StartTrial()
	require.NoError(t, err)
	m.Handle(wire.Event{Sensor: 0, State: 1})
	require.Len(t, tr.Events, 1)
	assert.True(t, tr.Events[0].Counted)
}

// A closed message channel means the transport is gone; the active
// trial must stay open so a reconnect can resume into it.
func TestRun_TransportLossKeepsTrialOpen(t *testing.T) {
	m := newMachine(t, time.Millisecond)
	tr, err := m.StartTrial()
	require.NoError(t, err)

	msgs := make(chan wire.Message, 2)
	msgs <- wire.Event{Sensor: 0, State: 1}
	msgs <- wire.Event{Sensor: 0, State: 0}
	close(msgs)

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(msgs)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after channel close")
	}

	assert.True(t, tr.Active())
	assert.Len(t, tr.Events, 2)
	assert.Same(t, tr, m.CurrentTrial())
}

func TestOnUpdate(t *testing.T) {
	m := newMachine(t, time.Millisecond)

	updates := 0
	m.OnUpdate(func() { updates++ })

	_, err := m.StartTrial()
	require.NoError(t, err)
	m.Handle(wire.Event{Sensor: 0, State: 1})
	_, err = m.EndTrial()
	require.NoError(t, err)

	assert.Equal(t, 3, updates)
}
