package main

import "machine"

const (
	// Polling configuration
	POLL_INTERVAL_MS = 10 // Sensor poll interval in milliseconds

	// Serial configuration
	// Baud rate calculation: Event format {"sensor":0,"state":1}\n = ~23 bytes.
	// Worst case both beams flip in one poll: 2 * 23 bytes per 10ms = 4,600 bytes/sec peak,
	// but sustained traffic is a handful of edges per second (~100 bytes/sec).
	// UART 8N1: 10 bits/byte = 9600 baud carries 960 bytes/sec sustained, plenty
	// with the UART FIFO absorbing the rare two-edge poll.
	UART_BAUD_RATE = 9600
)

// digitalPins maps physical pin ids 2..13 to the Nano's digital pins.
var digitalPins = [...]machine.Pin{
	machine.D2, machine.D3, machine.D4, machine.D5,
	machine.D6, machine.D7, machine.D8, machine.D9,
	machine.D10, machine.D11, machine.D12, machine.D13,
}

func inputPin(id uint8) machine.Pin {
	return digitalPins[id-2]
}

// nanoInputs backs rig.Inputs with the Nano's GPIO bank. The beam
// sensors pull their line low through the pull-up when interrupted.
type nanoInputs struct{}

func (nanoInputs) Configure(pin uint8) {
	inputPin(pin).Configure(machine.PinConfig{Mode: machine.PinInputPullup})
}

func (nanoInputs) Read(pin uint8) bool {
	return inputPin(pin).Get()
}
