package device

import "errors"

// Domain errors for the device package.
var (
	// ErrNotConnected is returned when a command is issued while the
	// transport is not connected.
	ErrNotConnected = errors.New("device: not connected")

	// ErrCommandFailed is returned when a command could not be delivered
	// to the device.
	ErrCommandFailed = errors.New("device: command failed")

	// ErrInvalidEvent is returned when an unknown event name is used.
	ErrInvalidEvent = errors.New("device: invalid event name")
)
