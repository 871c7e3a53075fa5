package device

import "context"

// Proxy is the device command/feedback surface consumed by the controller
// core. Implementations translate these calls onto a concrete transport
// (MQTT bridge, serial link, or a test fake).
//
// The controller assumes at most one actuation or feedback wait in flight
// per proxy at a time; concurrent operations must be serialised by the
// caller.
type Proxy interface {
	// EnableEvent turns on reporting of the named device event (for
	// example EventChannelsUpdated). Enabling an already-enabled event is
	// a no-op on the device.
	EnableEvent(ctx context.Context, event string) error

	// SetActuatedChannels requests actuation of exactly the given
	// channels. When replace is true the set replaces any previously
	// actuated channels; when false it is added to them. Confirmation of
	// the applied set arrives asynchronously via ChannelsUpdated.
	SetActuatedChannels(ctx context.Context, channels []int, replace bool) error

	// SetCapacitanceUpdateInterval sets the capacitance feedback reporting
	// interval in milliseconds (0 disables reporting) and returns the
	// previous interval so callers can restore it when an operation
	// completes.
	SetCapacitanceUpdateInterval(ctx context.Context, ms int) (prev int, err error)

	// Capacitance is the "capacitance-updated" feedback stream.
	Capacitance() *Signal[FeedbackSample]

	// ChannelsUpdated is the "channels-updated" confirmation stream.
	ChannelsUpdated() *Signal[[]int]
}
