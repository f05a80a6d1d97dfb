package lrt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pittjames/golrt/pkg/config"
	"github.com/pittjames/golrt/pkg/rig"
	"github.com/pittjames/golrt/pkg/wire"
)

// Mock simulates the rig for testing and development: a rat crossing
// the ladder on a fixed cadence, breaking the two beams in turn. It
// follows the real device's protocol behavior, including the startup
// ConfigPush and silent rejection of bad remaps.
type Mock struct {
	cfg *config.MockConfig

	messages  chan wire.Message
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	pins [rig.NumChannels]uint8
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		def := config.Default().Mock
		cfg = &def
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:       cfg,
		messages:  make(chan wire.Message, DefaultBufferSize),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
		pins:      rig.DefaultPins(),
	}
}

// Connect simulates connecting to the device. Like the real rig, the
// first thing on the stream is a ConfigPush with the current mapping.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.messages <- wire.ConfigPush{Config: m.snapshot()}

	go m.generateCrossings()

	return nil
}

// Close stops the mocked device.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.connected = false
	close(m.messages)

	return nil
}

// Messages returns the channel of simulated messages.
func (m *Mock) Messages() <-chan wire.Message {
	return m.messages
}

// Remap applies the same validation the rig's registry does: bad
// indices, bad pins and collisions are ignored without confirmation,
// accepted remaps are confirmed with a ConfigPush.
func (m *Mock) Remap(index, pin int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}

	if index < 0 || index >= rig.NumChannels {
		return nil
	}
	if pin < int(rig.MinPin) || pin > int(rig.MaxPin) {
		return nil
	}
	for ch, assigned := range m.pins {
		if ch != index && assigned == uint8(pin) {
			return nil
		}
	}

	m.pins[index] = uint8(pin)
	m.emit(wire.ConfigPush{Config: m.snapshot()})

	return nil
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// generateCrossings emits an assert/release pair on alternating
// channels, one crossing per period.
func (m *Mock) generateCrossings() {
	ticker := time.NewTicker(m.cfg.Period)
	defer ticker.Stop()

	channel := 0
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.mu.RLock()
			sensor := int(m.pins[channel] - rig.MinPin)
			m.mu.RUnlock()

			m.emitLocked(wire.Event{Sensor: sensor, State: wire.StateAsserted})

			select {
			case <-m.ctx.Done():
				return
			case <-time.After(m.cfg.Hold):
			}

			m.emitLocked(wire.Event{Sensor: sensor, State: wire.StateReleased})
			channel = (channel + 1) % rig.NumChannels
		}
	}
}

// emit sends a message without blocking. Callers hold m.mu.
func (m *Mock) emit(msg wire.Message) {
	select {
	case m.messages <- msg:
	default:
		// Channel full, skip
	}
}

// emitLocked is emit for the generator goroutine, which must not send
// on a closed channel after Close.
func (m *Mock) emitLocked(msg wire.Message) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.connected {
		return
	}
	m.emit(msg)
}

func (m *Mock) snapshot() []wire.ChannelPin {
	cfg := make([]wire.ChannelPin, rig.NumChannels)
	for ch, pin := range m.pins {
		cfg[ch] = wire.ChannelPin{Index: ch, Pin: int(pin)}
	}
	return cfg
}
