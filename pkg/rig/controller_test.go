package rig

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pittjames/golrt/pkg/wire"
)

// sink collects outbound lines and decodes them for assertions.
type sink struct {
	lines []string
}

func (s *sink) send(b []byte) {
	s.lines = append(s.lines, string(b))
}

func (s *sink) messages(t *testing.T) []wire.Message {
	t.Helper()
	var msgs []wire.Message
	for _, line := range s.lines {
		msg, err := wire.DecodeLine(strings.TrimSuffix(line, "\n"))
		require.NoError(t, err)
		msgs = append(msgs, msg)
	}
	return msgs
}

func (s *sink) feed(c *Controller, line string) {
	for i := 0; i < len(line); i++ {
		c.Feed(line[i])
	}
}

func TestController_StartupConfigPush(t *testing.T) {
	out := &sink{}
	c := NewController(newFakeInputs(), out.send)
	c.Start()

	msgs := out.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, wire.ConfigPush{
		Config: []wire.ChannelPin{{Index: 0, Pin: 2}, {Index: 1, Pin: 3}},
	}, msgs[0])
}

func TestController_PollEmitsEvents(t *testing.T) {
	in := newFakeInputs()
	out := &sink{}
	c := NewController(in, out.send)

	in.set(2, false)
	c.Poll()
	in.set(2, true)
	c.Poll()

	msgs := out.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, wire.Event{Sensor: 0, State: wire.StateAsserted}, msgs[0])
	assert.Equal(t, wire.Event{Sensor: 0, State: wire.StateReleased}, msgs[1])
}

// Accepted remap updates the mapping and is answered with exactly one
// ConfigPush; an out-of-range pin is ignored with no push at all.
func TestController_RemapCommand(t *testing.T) {
	in := newFakeInputs()
	out := &sink{}
	c := NewController(in, out.send)

	out.feed(c, "PIN:0:5\n")
	msgs := out.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, wire.ConfigPush{
		Config: []wire.ChannelPin{{Index: 0, Pin: 5}, {Index: 1, Pin: 3}},
	}, msgs[0])
	assert.Equal(t, uint8(5), c.Registry().Pin(0))

	out.feed(c, "PIN:0:99\n")
	assert.Len(t, out.lines, 1) // no push, no change
	assert.Equal(t, uint8(5), c.Registry().Pin(0))
}

func TestController_RemapPrimesDebouncer(t *testing.T) {
	in := newFakeInputs()
	out := &sink{}
	c := NewController(in, out.send)

	// The new pin is already low when the remap arrives; the poll right
	// after must stay quiet.
	in.set(7, false)
	out.feed(c, "PIN:0:7\n")
	out.lines = nil

	c.Poll()
	assert.Empty(t, out.lines)
}

func TestController_Feed(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantLines int
	}{
		{"malformed command dropped", "PIN:0\n", 0},
		{"garbage dropped", "hello\n", 0},
		{"blank line ignored", "\n\r\n", 0},
		{"whitespace inside line skipped", " PIN : 0 : 5 \n", 1},
		{"carriage return terminates", "PIN:0:5\r", 1},
		{"overlong line discarded", strings.Repeat("x", 40) + "\n", 0},
		{"command after overlong line still works", strings.Repeat("x", 40) + "\nPIN:0:5\n", 1},
		{"two commands back to back", "PIN:0:5\nPIN:1:6\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &sink{}
			c := NewController(newFakeInputs(), out.send)
			out.feed(c, tt.input)
			assert.Len(t, out.lines, tt.wantLines)
		})
	}
}

func TestController_NegativePinRejected(t *testing.T) {
	out := &sink{}
	c := NewController(newFakeInputs(), out.send)

	out.feed(c, "PIN:0:-3\n")
	assert.Empty(t, out.lines)
	assert.Equal(t, uint8(2), c.Registry().Pin(0))
}
