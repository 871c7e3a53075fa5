// Package telemetry mirrors device feedback into InfluxDB.
//
// A Recorder subscribes to a device proxy's capacitance stream and writes
// every sample as a time-series point. Recording is best-effort: a slow or
// unavailable InfluxDB never blocks the control loop, because the recorder
// consumes its own signal subscription and the underlying write API batches
// asynchronously.
package telemetry
