// Package wire implements the line-oriented protocol spoken between the
// sensor rig and the host. Every message is a single newline-terminated
// text record: sensor events and configuration pushes travel device to
// host as JSON objects, pin remap commands travel host to device as
// plain "PIN:<index>:<pin>" lines.
package wire

import "strconv"

// Sensor states carried in Event records.
const (
	StateReleased = 0 // beam restored
	StateAsserted = 1 // beam broken
)

// Message is a decoded wire record. The concrete types are Event,
// ConfigPush and Command.
type Message interface {
	message()
}

// ChannelPin is one entry of a configuration push: the logical sensor
// index and the physical pin it is currently mapped to.
type ChannelPin struct {
	Index int `json:"index"`
	Pin   int `json:"pin"`
}

// Event is a single sensor edge reported by the device.
// Sensor is the pin-relative index (physical pin minus the lowest valid
// pin, so pin 2 reports as sensor 0), not the logical channel; the host
// resolves it through the mirrored pin mapping.
type Event struct {
	Sensor int `json:"sensor"`
	State  int `json:"state"`
}

func (Event) message() {}

// Asserted reports whether the event is a beam-broken edge.
func (e Event) Asserted() bool { return e.State == StateAsserted }

// ConfigPush is the device's broadcast of its full current pin mapping,
// sent at startup and after every accepted remap.
type ConfigPush struct {
	Config []ChannelPin `json:"config"`
}

func (ConfigPush) message() {}

// Command is a host request to remap one logical channel to a new
// physical pin.
type Command struct {
	Index int
	Pin   int
}

func (Command) message() {}

// AppendLine appends the encoded event record, including the
// terminating newline, to dst. Built with strconv only so the firmware
// can share it without pulling in fmt.
func (e Event) AppendLine(dst []byte) []byte {
	dst = append(dst, `{"sensor":`...)
	dst = strconv.AppendInt(dst, int64(e.Sensor), 10)
	dst = append(dst, `,"state":`...)
	dst = strconv.AppendInt(dst, int64(e.State), 10)
	dst = append(dst, '}', '\n')
	return dst
}

// AppendLine appends the encoded configuration push, including the
// terminating newline, to dst.
func (p ConfigPush) AppendLine(dst []byte) []byte {
	dst = append(dst, `{"config":[`...)
	for i, cp := range p.Config {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, `{"index":`...)
		dst = strconv.AppendInt(dst, int64(cp.Index), 10)
		dst = append(dst, `,"pin":`...)
		dst = strconv.AppendInt(dst, int64(cp.Pin), 10)
		dst = append(dst, '}')
	}
	dst = append(dst, ']', '}', '\n')
	return dst
}

// AppendLine appends the encoded remap command, including the
// terminating newline, to dst.
func (c Command) AppendLine(dst []byte) []byte {
	dst = append(dst, "PIN:"...)
	dst = strconv.AppendInt(dst, int64(c.Index), 10)
	dst = append(dst, ':')
	dst = strconv.AppendInt(dst, int64(c.Pin), 10)
	dst = append(dst, '\n')
	return dst
}

// Line returns the encoded record without the terminating newline.
func (e Event) Line() string { return lineOf(e) }

// Line returns the encoded record without the terminating newline.
func (p ConfigPush) Line() string { return lineOf(p) }

// Line returns the encoded record without the terminating newline.
func (c Command) Line() string { return lineOf(c) }

type appender interface {
	AppendLine([]byte) []byte
}

func lineOf(a appender) string {
	b := a.AppendLine(nil)
	return string(b[:len(b)-1])
}
