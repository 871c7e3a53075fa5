package device

// Device event names, matching the DropBot firmware event identifiers.
const (
	// EventCapacitanceUpdated carries a FeedbackSample with the latest
	// capacitance measurement.
	EventCapacitanceUpdated = "capacitance-updated"

	// EventChannelsUpdated carries the set of channels the device reports
	// as actually actuated after a channel-state change.
	EventChannelsUpdated = "channels-updated"
)

// FeedbackSample is a single capacitance measurement reported by the device
// while feedback reporting is enabled.
//
// Samples are immutable once received. The wire field names match the
// DropBot event payload keys.
type FeedbackSample struct {
	// Event is the device event tag ("capacitance-updated").
	Event string `json:"event"`

	// Capacitance is the measured capacitance in Farads.
	Capacitance float64 `json:"new_value"`

	// TimeUS is the device's monotonic microsecond counter at measurement
	// time. It is a 32-bit counter and wraps roughly every 71 minutes;
	// consumers must compute relative times with wrap-safe uint32
	// subtraction.
	TimeUS uint32 `json:"time_us"`

	// SampleCount is the number of measurements averaged into this sample.
	SampleCount int `json:"n_samples"`

	// ActuationVoltage is the measured actuation voltage during the
	// capacitance reading, in volts.
	ActuationVoltage float64 `json:"V_a"`
}

// ChannelsUpdated is the payload of a "channels-updated" device event.
type ChannelsUpdated struct {
	Event    string `json:"event"`
	Actuated []int  `json:"actuated"`
}
