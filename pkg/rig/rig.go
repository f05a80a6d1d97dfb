// Package rig implements the device-side core of the ladder rung rig:
// the pin configuration registry, the edge detector and the controller
// that ties them to the wire protocol. It is kept free of the machine
// package so the same code runs under TinyGo on the rig and under the
// host toolchain in tests; the firmware supplies an Inputs backed by
// real hardware.
package rig

// NumChannels is the number of logical sensor channels.
const NumChannels = 2

// Valid physical pin range (Arduino Nano digital pins).
const (
	MinPin uint8 = 2
	MaxPin uint8 = 13
)

// ActiveLevel is the sampled level that means "beam broken". The
// opto-interrupters sit behind pull-ups and pull the line low when the
// beam is interrupted.
const ActiveLevel = false

// Inputs abstracts the digital input bank.
type Inputs interface {
	// Configure sets the pin up as a pulled-up digital input.
	Configure(pin uint8)
	// Read samples the pin's current logical level.
	Read(pin uint8) bool
}

// DefaultPins returns the compiled-in default channel mapping:
// channel 0 on pin 2 (foot error beam), channel 1 on pin 3 (interface
// beam).
func DefaultPins() [NumChannels]uint8 {
	return [NumChannels]uint8{2, 3}
}
