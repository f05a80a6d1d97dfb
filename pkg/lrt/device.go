// Package lrt talks to the ladder rung test rig over its serial link:
// it frames the inbound byte stream into lines, decodes them into wire
// messages, and sends pin remap commands the other way.
package lrt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"go.bug.st/serial"

	"github.com/pittjames/golrt/pkg/wire"
)

const (
	// DefaultBaudRate matches the rig's UART configuration.
	DefaultBaudRate = 9600
	// DefaultBufferSize is the default size for the messages channel buffer.
	DefaultBufferSize = 100
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the rig.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	messages  chan wire.Message
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// New creates a new Serial instance with the specified port, baud rate,
// and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:      port,
		baudRate:  baudRate,
		bufSize:   bufSize,
		messages:  make(chan wire.Message, bufSize),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect opens the serial port and starts reading messages.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	// Start reading messages in a goroutine
	go d.readMessages(port)

	return nil
}

// Close closes the connection and stops reading messages.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	// Cancel context to stop reading goroutine
	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false

	// Close messages channel
	close(d.messages)

	return nil
}

// Messages returns the channel of decoded messages from the rig.
func (d *Serial) Messages() <-chan wire.Message {
	return d.messages
}

// Remap asks the rig to move one logical channel to a new physical
// pin. The rig answers an accepted remap with a ConfigPush on the
// message stream; a rejected one is silently ignored, so there is no
// acknowledgment to wait for here.
func (d *Serial) Remap(index, pin int) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}

	cmd := wire.Command{Index: index, Pin: pin}
	if _, err := d.conn.Write(cmd.AppendLine(nil)); err != nil {
		return fmt.Errorf("failed to send remap command: %w", err)
	}

	return nil
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readMessages reads lines from the serial port and decodes them into
// wire messages. Malformed lines are logged and dropped; the stream
// keeps going.
func (d *Serial) readMessages(r io.Reader) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Panic in readMessages: %v", rec)
		}
	}()

	scanner := bufio.NewScanner(r)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				// Scanner stopped (EOF or error)
				if err := scanner.Err(); err != nil {
					if err != io.EOF {
						log.Printf("Error reading from serial port: %v", err)
					}
				}
				return
			}

			line := scanner.Text()
			if len(line) == 0 {
				continue
			}

			msg, err := wire.DecodeLine(line)
			if err != nil {
				log.Printf("Dropping malformed line '%s'", line)
				continue
			}

			// Send message to channel (non-blocking)
			select {
			case d.messages <- msg:
			case <-d.ctx.Done():
				return
			default:
				// Channel full, log and skip
				log.Printf("Messages channel full, dropping message")
			}
		}
	}
}
