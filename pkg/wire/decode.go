package wire

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrSyntax is returned for any line that is not a well-formed wire
// record. Callers drop the line and keep reading; a malformed record is
// never fatal.
var ErrSyntax = errors.New("wire: malformed record")

// commandPrefix starts every remap command line.
const commandPrefix = "PIN"

// DecodeLine decodes one complete line (without its newline) into a
// Message. A JSON object carrying a "config" key decodes as a
// ConfigPush, any other JSON object must carry both "sensor" and
// "state" and decodes as an Event, and a PIN:<index>:<pin> line decodes
// as a Command. Range checking of indices and pins is not done here;
// that is the registry's job on the device and the session mirror's on
// the host.
func DecodeLine(line string) (Message, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrSyntax
	}

	if strings.HasPrefix(line, commandPrefix+":") {
		return ParseCommand(line)
	}

	// Probe with pointer fields so an absent key is distinguishable
	// from a zero value.
	var probe struct {
		Config []ChannelPin `json:"config"`
		Sensor *int         `json:"sensor"`
		State  *int         `json:"state"`
	}
	if err := json.Unmarshal([]byte(line), &probe); err != nil {
		return nil, ErrSyntax
	}

	if probe.Config != nil {
		return ConfigPush{Config: probe.Config}, nil
	}
	if probe.Sensor != nil && probe.State != nil {
		return Event{Sensor: *probe.Sensor, State: *probe.State}, nil
	}
	return nil, ErrSyntax
}

// ParseCommand parses a PIN:<index>:<pin> remap command. The record
// must contain exactly two separators and integer fields; anything else
// is ErrSyntax. This is the only inbound shape the device understands,
// so it is kept free of encoding/json for the firmware's sake.
func ParseCommand(line string) (Command, error) {
	parts := strings.Split(strings.TrimSpace(line), ":")
	if len(parts) != 3 || parts[0] != commandPrefix {
		return Command{}, ErrSyntax
	}

	index, err := strconv.Atoi(parts[1])
	if err != nil {
		return Command{}, ErrSyntax
	}
	pin, err := strconv.Atoi(parts[2])
	if err != nil {
		return Command{}, ErrSyntax
	}

	return Command{Index: index, Pin: pin}, nil
}
