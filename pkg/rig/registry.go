package rig

import "github.com/pittjames/golrt/pkg/wire"

// Registry holds the current logical channel to physical pin mapping.
// It is the only owner of that state: the debouncer reads it through
// Pin, inbound remap commands mutate it through Remap.
type Registry struct {
	in   Inputs
	pins [NumChannels]uint8
}

// NewRegistry creates a registry with the compiled-in default mapping
// and configures the default pins as inputs.
func NewRegistry(in Inputs) *Registry {
	r := &Registry{in: in, pins: DefaultPins()}
	for _, pin := range r.pins {
		in.Configure(pin)
	}
	return r
}

// Pin returns the physical pin currently assigned to a channel.
func (r *Registry) Pin(channel int) uint8 {
	return r.pins[channel]
}

// Remap assigns a new physical pin to a channel and reports whether
// the request was accepted. Out-of-range channels or pins and pins
// already assigned to another channel are rejected silently: no state
// changes and no confirmation is sent, the host simply never sees a
// ConfigPush for them. On success the new pin is configured as an
// input.
func (r *Registry) Remap(channel int, pin uint8) bool {
	if channel < 0 || channel >= NumChannels {
		return false
	}
	if pin < MinPin || pin > MaxPin {
		return false
	}
	for ch, assigned := range r.pins {
		if ch != channel && assigned == pin {
			return false
		}
	}

	r.pins[channel] = pin
	r.in.Configure(pin)
	return true
}

// Snapshot returns the full current mapping in channel order, ready to
// be encoded as a ConfigPush.
func (r *Registry) Snapshot() []wire.ChannelPin {
	cfg := make([]wire.ChannelPin, NumChannels)
	for ch, pin := range r.pins {
		cfg[ch] = wire.ChannelPin{Index: ch, Pin: int(pin)}
	}
	return cfg
}
