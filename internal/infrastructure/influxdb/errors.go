package influxdb

import "errors"

// Sentinel errors for the telemetry sink, checkable with errors.Is.
// Write failures do not appear here: writes are batched and asynchronous,
// so they surface through the SetOnError callback instead.
var (
	// ErrNotConnected indicates the client is not connected to InfluxDB.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled indicates telemetry is disabled in the configuration.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
