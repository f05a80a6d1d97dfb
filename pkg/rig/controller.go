package rig

import "github.com/pittjames/golrt/pkg/wire"

// maxLineLen bounds the inbound command accumulator. The longest valid
// command is "PIN:1:13" plus slack.
const maxLineLen = 16

// Controller runs the device side of the protocol: it owns the
// registry and the debouncer, frames inbound bytes into command lines,
// and encodes outbound events and configuration pushes. The firmware
// drives it from a single cooperative loop; nothing here blocks.
type Controller struct {
	in  Inputs
	reg *Registry
	deb *Debouncer

	send func([]byte)

	// Inbound line accumulator.
	line     [maxLineLen]byte
	pos      int
	overflow bool

	// Reused encode buffer so polling does not allocate.
	scratch []byte
}

// NewController wires a controller to an input bank and an outbound
// byte sink (the UART write on hardware).
func NewController(in Inputs, send func([]byte)) *Controller {
	reg := NewRegistry(in)
	return &Controller{
		in:      in,
		reg:     reg,
		deb:     NewDebouncer(in, reg),
		send:    send,
		scratch: make([]byte, 0, 64),
	}
}

// Registry exposes the controller's pin mapping.
func (c *Controller) Registry() *Registry { return c.reg }

// Start announces the current (compiled-in) mapping to the host. Called
// once right after initialization.
func (c *Controller) Start() {
	c.push()
}

// Poll runs one polling iteration: every detected edge is encoded and
// sent immediately.
func (c *Controller) Poll() {
	c.deb.Poll(c.reg, func(ev wire.Event) {
		c.scratch = ev.AppendLine(c.scratch[:0])
		c.send(c.scratch)
	})
}

// Feed consumes one inbound byte. Bytes accumulate until a newline;
// whitespace is skipped, and lines longer than the accumulator are
// discarded wholesale once their terminator arrives. A complete line is
// parsed as a remap command; anything malformed is dropped without side
// effect.
func (c *Controller) Feed(b byte) {
	switch b {
	case '\n', '\r':
		if c.pos > 0 && !c.overflow {
			c.exec(string(c.line[:c.pos]))
		}
		c.pos = 0
		c.overflow = false
	case ' ', '\t':
		// Skip whitespace inside a line.
	default:
		if c.pos < maxLineLen {
			c.line[c.pos] = b
			c.pos++
		} else {
			c.overflow = true
		}
	}
}

// exec applies one complete command line. An accepted remap primes the
// debouncer from the new pin's current level (so the first poll after
// the remap stays quiet) and is confirmed with a ConfigPush; a rejected
// or malformed one does nothing at all.
func (c *Controller) exec(line string) {
	cmd, err := wire.ParseCommand(line)
	if err != nil {
		return
	}
	if cmd.Pin < 0 || cmd.Pin > int(MaxPin) {
		return
	}
	if !c.reg.Remap(cmd.Index, uint8(cmd.Pin)) {
		return
	}

	c.deb.Prime(cmd.Index, c.in.Read(uint8(cmd.Pin)))
	c.push()
}

func (c *Controller) push() {
	c.scratch = wire.ConfigPush{Config: c.reg.Snapshot()}.AppendLine(c.scratch[:0])
	c.send(c.scratch)
}
