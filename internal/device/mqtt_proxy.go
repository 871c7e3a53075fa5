package device

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MQTTClient is the transport interface required by MQTTProxy. The
// infrastructure MQTT client is adapted to it at the composition root;
// tests satisfy it with fakes.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error

	// Unsubscribe removes a subscription.
	Unsubscribe(topic string) error
}

// commandMessage is the JSON envelope published to the device command topic.
type commandMessage struct {
	Command  string `json:"command"`
	Event    string `json:"event,omitempty"`
	Channels []int  `json:"channels,omitempty"`
	Replace  *bool  `json:"replace,omitempty"`
	Interval *int   `json:"capacitance_update_interval_ms,omitempty"`
}

// MQTTProxy implements Proxy over the DropBot MQTT bridge.
//
// Commands are published as JSON to dropbot/<id>/command; device events
// arrive on dropbot/<id>/event/<event-name> and are fanned out through the
// typed signals.
type MQTTProxy struct {
	client   MQTTClient
	deviceID string
	qos      byte

	capacitance *Signal[FeedbackSample]
	channels    *Signal[[]int]

	// interval tracks the last reporting interval this proxy set, so
	// SetCapacitanceUpdateInterval can report the previous value for
	// scoped restore. The device powers up with reporting disabled (0).
	intervalMu sync.Mutex
	intervalMS int

	closeOnce sync.Once
}

// ConnectMQTTProxy creates a proxy for the given device ID and subscribes to
// its event topics. Call Close to release the subscriptions.
func ConnectMQTTProxy(client MQTTClient, deviceID string, qos byte) (*MQTTProxy, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: mqtt client is required", ErrNotConnected)
	}
	if deviceID == "" {
		return nil, fmt.Errorf("device: device ID is required")
	}

	p := &MQTTProxy{
		client:      client,
		deviceID:    deviceID,
		qos:         qos,
		capacitance: NewSignal[FeedbackSample](),
		channels:    NewSignal[[]int](),
	}

	if err := client.Subscribe(p.eventTopic(EventCapacitanceUpdated), qos, p.handleCapacitance); err != nil {
		return nil, fmt.Errorf("subscribing to capacitance events: %w", err)
	}
	if err := client.Subscribe(p.eventTopic(EventChannelsUpdated), qos, p.handleChannels); err != nil {
		// Release the first subscription so a failed connect leaks nothing.
		_ = client.Unsubscribe(p.eventTopic(EventCapacitanceUpdated))
		return nil, fmt.Errorf("subscribing to channel events: %w", err)
	}

	return p, nil
}

// Close releases the proxy's event subscriptions. Idempotent.
func (p *MQTTProxy) Close() error {
	var err error
	p.closeOnce.Do(func() {
		if unsubErr := p.client.Unsubscribe(p.eventTopic(EventCapacitanceUpdated)); unsubErr != nil {
			err = unsubErr
		}
		if unsubErr := p.client.Unsubscribe(p.eventTopic(EventChannelsUpdated)); unsubErr != nil && err == nil {
			err = unsubErr
		}
	})
	return err
}

// EnableEvent turns on reporting of the named device event.
func (p *MQTTProxy) EnableEvent(_ context.Context, event string) error {
	if event != EventCapacitanceUpdated && event != EventChannelsUpdated {
		return fmt.Errorf("%w: %q", ErrInvalidEvent, event)
	}
	return p.publishCommand(commandMessage{Command: "enable_event", Event: event})
}

// SetActuatedChannels requests actuation of the given channels.
func (p *MQTTProxy) SetActuatedChannels(_ context.Context, channels []int, replace bool) error {
	return p.publishCommand(commandMessage{
		Command:  "set_channels",
		Channels: channels,
		Replace:  &replace,
	})
}

// SetCapacitanceUpdateInterval sets the feedback reporting interval and
// returns the previously configured interval.
func (p *MQTTProxy) SetCapacitanceUpdateInterval(_ context.Context, ms int) (int, error) {
	if ms < 0 {
		return 0, fmt.Errorf("device: update interval must be >= 0, got %d", ms)
	}

	p.intervalMu.Lock()
	defer p.intervalMu.Unlock()

	if err := p.publishCommand(commandMessage{Command: "update_state", Interval: &ms}); err != nil {
		return 0, err
	}
	prev := p.intervalMS
	p.intervalMS = ms
	return prev, nil
}

// Capacitance returns the capacitance feedback signal.
func (p *MQTTProxy) Capacitance() *Signal[FeedbackSample] {
	return p.capacitance
}

// ChannelsUpdated returns the actuation confirmation signal.
func (p *MQTTProxy) ChannelsUpdated() *Signal[[]int] {
	return p.channels
}

func (p *MQTTProxy) publishCommand(cmd commandMessage) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %w", ErrCommandFailed, cmd.Command, err)
	}
	if err := p.client.Publish(p.commandTopic(), payload, p.qos, false); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCommandFailed, cmd.Command, err)
	}
	return nil
}

func (p *MQTTProxy) commandTopic() string {
	return fmt.Sprintf("dropbot/%s/command", p.deviceID)
}

func (p *MQTTProxy) eventTopic(event string) string {
	return fmt.Sprintf("dropbot/%s/event/%s", p.deviceID, event)
}

// handleCapacitance decodes a capacitance-updated event payload and emits it.
func (p *MQTTProxy) handleCapacitance(_ string, payload []byte) error {
	var sample FeedbackSample
	if err := json.Unmarshal(payload, &sample); err != nil {
		return fmt.Errorf("decoding capacitance event: %w", err)
	}
	p.capacitance.Emit(sample)
	return nil
}

// handleChannels decodes a channels-updated event payload and emits the
// actuated set.
func (p *MQTTProxy) handleChannels(_ string, payload []byte) error {
	var msg ChannelsUpdated
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decoding channels event: %w", err)
	}
	if msg.Actuated == nil {
		msg.Actuated = []int{}
	}
	p.channels.Emit(msg.Actuated)
	return nil
}

var _ Proxy = (*MQTTProxy)(nil)
