//go:generate tinygo flash -target=arduino-nano

package main

import (
	"machine"
	"time"

	"github.com/pittjames/golrt/pkg/rig"
)

var (
	uart = machine.UART0

	// Timing
	lastPoll time.Time
)

func main() {
	// Configure UART for host communication
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	// The controller owns the pin registry and edge detection; the
	// loop below only shovels bytes and keeps the polling cadence.
	ctrl := rig.NewController(nanoInputs{}, func(line []byte) {
		uart.Write(line)
	})

	// Announce the compiled-in pin mapping to the host
	ctrl.Start()

	lastPoll = time.Now()

	// Main loop: decode inbound bytes opportunistically between polls,
	// never blocking on either side.
	for {
		// Check for serial input (non-blocking)
		for uart.Buffered() > 0 {
			data, err := uart.ReadByte()
			if err != nil {
				break
			}
			ctrl.Feed(data)
		}

		// Poll both beams every POLL_INTERVAL_MS
		now := time.Now()
		if now.Sub(lastPoll) >= time.Duration(POLL_INTERVAL_MS)*time.Millisecond {
			ctrl.Poll()
			lastPoll = now
		}

		// Small delay to prevent tight loop (but still allow precise timing)
		time.Sleep(100 * time.Microsecond)
	}
}
