// Package device defines the DropBot device collaborator surface consumed by
// the liquid-movement controller.
//
// The controller core (internal/move) never talks to a transport directly.
// It consumes the Proxy interface, which exposes:
//
//   - Commands: enable a device event, replace the actuated channel set,
//     change the capacitance feedback reporting interval.
//   - Event streams: typed signals for "capacitance-updated" feedback
//     samples and "channels-updated" actuation confirmations.
//
// # Signals
//
// Device events are delivered through Signal[T] hubs. Each subscriber gets
// its own buffered channel, so events are received in device-delivery order
// (FIFO per subscriber). Subscriptions are scoped: callers must Close() the
// subscription on every exit path, typically with defer.
//
//	sub := proxy.Capacitance().Subscribe(0)
//	defer sub.Close()
//	for sample := range sub.C { ... }
//
// # Transport
//
// MQTTProxy is the concrete adapter speaking JSON over the DropBot MQTT
// bridge topics (dropbot/<id>/command, dropbot/<id>/event/...). The wire
// field names (new_value, time_us, n_samples, V_a) match the DropBot
// firmware event payloads.
//
// # Thread Safety
//
// All exported types are safe for concurrent use from multiple goroutines.
// Note that the controller core assumes at most one actuation or wait in
// flight per device connection; that serialisation is the caller's job.
package device
