package mqtt

import "fmt"

// Topic prefixes for the dropctl MQTT namespace.
//
// Device topics use the flat scheme: dropbot/{device_id}/{category}[/{name}]
// which matches the firmware gateway's publishing layout.
const (
	// TopicPrefixDevice is the base for all device topics.
	TopicPrefixDevice = "dropbot"

	// TopicPrefixSystem is the base for controller system topics.
	TopicPrefixSystem = "dropctl/system"
)

// Topics provides builders for dropctl MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.DeviceCommand("dropbot-01")
//	// Returns: "dropbot/dropbot-01/command"
type Topics struct{}

// DeviceCommand returns the topic for commands to a device.
//
// Example: dropbot/dropbot-01/command
func (Topics) DeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/%s/command", TopicPrefixDevice, deviceID)
}

// DeviceEvent returns the topic a device publishes a named event on.
//
// Example: dropbot/dropbot-01/event/capacitance-updated
func (Topics) DeviceEvent(deviceID, event string) string {
	return fmt.Sprintf("%s/%s/event/%s", TopicPrefixDevice, deviceID, event)
}

// DeviceStatus returns the topic for device online/offline status.
//
// Example: dropbot/dropbot-01/status
func (Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixDevice, deviceID)
}

// SystemStatus returns the controller status topic.
//
// Example: dropctl/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllDeviceEvents returns a pattern matching every event from one device.
//
// Pattern: dropbot/dropbot-01/event/+
func (Topics) AllDeviceEvents(deviceID string) string {
	return fmt.Sprintf("%s/%s/event/+", TopicPrefixDevice, deviceID)
}

// AllDeviceStatus returns a pattern matching all device status topics.
//
// Pattern: dropbot/+/status
func (Topics) AllDeviceStatus() string {
	return fmt.Sprintf("%s/+/status", TopicPrefixDevice)
}

// AllDeviceTopics returns a pattern matching all device traffic.
// Use with caution - this receives ALL traffic.
//
// Pattern: dropbot/#
func (Topics) AllDeviceTopics() string {
	return fmt.Sprintf("%s/#", TopicPrefixDevice)
}
