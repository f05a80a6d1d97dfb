package rig

import "github.com/pittjames/golrt/pkg/wire"

// Debouncer tracks the last observed level of each channel and turns
// level changes into edge events. It is edge-triggered at the polling
// cadence: every observed flip is reported, once, in poll order.
// Temporal filtering (the 200 ms / 1000 ms windows) is the host
// session's job; a level that does not persist for a full poll interval
// is never seen here and therefore never reported.
type Debouncer struct {
	in   Inputs
	last [NumChannels]bool
}

// NewDebouncer creates a debouncer primed with the current level of
// every configured channel, so the first poll after startup reports
// nothing unless something actually moved.
func NewDebouncer(in Inputs, reg *Registry) *Debouncer {
	d := &Debouncer{in: in}
	for ch := 0; ch < NumChannels; ch++ {
		d.last[ch] = in.Read(reg.Pin(ch))
	}
	return d
}

// Poll samples every channel once and calls emit for each channel whose
// level differs from the last observation. Events carry the
// pin-relative sensor index (pin minus MinPin) and are handed off
// immediately; nothing is buffered across polls.
func (d *Debouncer) Poll(reg *Registry, emit func(wire.Event)) {
	for ch := 0; ch < NumChannels; ch++ {
		pin := reg.Pin(ch)
		level := d.in.Read(pin)
		if level == d.last[ch] {
			continue
		}
		d.last[ch] = level

		state := wire.StateReleased
		if level == ActiveLevel {
			state = wire.StateAsserted
		}
		emit(wire.Event{Sensor: int(pin - MinPin), State: state})
	}
}

// Prime overwrites a channel's last observed level. Called after a
// remap so the first poll on the new pin does not report a spurious
// edge.
func (d *Debouncer) Prime(channel int, level bool) {
	d.last[channel] = level
}
