package lrt

import "github.com/pittjames/golrt/pkg/wire"

// Device defines the interface for the ladder rung rig (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Messages() <-chan wire.Message
	Remap(index, pin int) error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
