package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteCapacitance writes a single capacitance feedback measurement.
//
// This is the primary method for mirroring device feedback into the time
// series store. The write is non-blocking; data is batched and sent
// asynchronously.
//
// Parameters:
//   - deviceID: Device identifier (e.g., "dropbot-01")
//   - capacitance: Measured capacitance in farads
//   - sampleCount: Number of raw ADC samples averaged into the reading
//   - voltage: Actuation voltage at measurement time
//   - timestamp: Measurement time
//
// Example:
//
//	client.WriteCapacitance("dropbot-01", 52.3e-12, 40, 95.0, time.Now())
func (c *Client) WriteCapacitance(deviceID string, capacitance float64, sampleCount int, voltage float64, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"capacitance",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"value":     capacitance,
			"n_samples": sampleCount,
			"voltage":   voltage,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WriteActuation records an electrode actuation event.
//
// Parameters:
//   - deviceID: Device identifier
//   - actuationID: Unique identifier for the actuation
//   - channelCount: Number of channels actuated
func (c *Client) WriteActuation(deviceID string, actuationID string, channelCount int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"actuation",
		map[string]string{
			"device_id":    deviceID,
			"actuation_id": actuationID,
		},
		map[string]interface{}{
			"channel_count": channelCount,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("controller_stats",
//	    map[string]string{"device_id": "dropbot-01"},
//	    map[string]interface{}{"steps_completed": 12, "dropped_samples": 0})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
