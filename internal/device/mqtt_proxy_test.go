package device

import (
	"context"
	"encoding/json"
	"testing"
)

// fakeMQTT records publishes and lets tests inject event payloads by
// invoking the registered handlers directly.
type fakeMQTT struct {
	published []fakePublish
	handlers  map[string]func(topic string, payload []byte) error
}

type fakePublish struct {
	topic   string
	payload []byte
}

func newFakeMQTT() *fakeMQTT {
	return &fakeMQTT{handlers: make(map[string]func(string, []byte) error)}
}

func (f *fakeMQTT) Publish(topic string, payload []byte, _ byte, _ bool) error {
	f.published = append(f.published, fakePublish{topic: topic, payload: payload})
	return nil
}

func (f *fakeMQTT) Subscribe(topic string, _ byte, handler func(string, []byte) error) error {
	f.handlers[topic] = handler
	return nil
}

func (f *fakeMQTT) Unsubscribe(topic string) error {
	delete(f.handlers, topic)
	return nil
}

func (f *fakeMQTT) deliver(t *testing.T, topic string, payload string) {
	t.Helper()
	handler, ok := f.handlers[topic]
	if !ok {
		t.Fatalf("no handler registered for topic %s", topic)
	}
	if err := handler(topic, []byte(payload)); err != nil {
		t.Fatalf("handler for %s returned error: %v", topic, err)
	}
}

func newTestProxy(t *testing.T) (*MQTTProxy, *fakeMQTT) {
	t.Helper()
	client := newFakeMQTT()
	proxy, err := ConnectMQTTProxy(client, "db3-001", 1)
	if err != nil {
		t.Fatalf("ConnectMQTTProxy() error: %v", err)
	}
	t.Cleanup(func() { _ = proxy.Close() })
	return proxy, client
}

func TestConnectSubscribesToEventTopics(t *testing.T) {
	_, client := newTestProxy(t)

	for _, topic := range []string{
		"dropbot/db3-001/event/capacitance-updated",
		"dropbot/db3-001/event/channels-updated",
	} {
		if _, ok := client.handlers[topic]; !ok {
			t.Errorf("expected subscription to %s", topic)
		}
	}
}

func TestCapacitanceEventDecoding(t *testing.T) {
	proxy, client := newTestProxy(t)

	sub := proxy.Capacitance().Subscribe(1)
	defer sub.Close()

	client.deliver(t, "dropbot/db3-001/event/capacitance-updated",
		`{"event":"capacitance-updated","new_value":7.64e-11,"time_us":2951675894,"n_samples":50,"V_a":114.9}`)

	sample := <-sub.C
	if sample.Capacitance != 7.64e-11 {
		t.Errorf("Capacitance = %g, want 7.64e-11", sample.Capacitance)
	}
	if sample.TimeUS != 2951675894 {
		t.Errorf("TimeUS = %d, want 2951675894", sample.TimeUS)
	}
	if sample.SampleCount != 50 {
		t.Errorf("SampleCount = %d, want 50", sample.SampleCount)
	}
}

func TestChannelsUpdatedEventDecoding(t *testing.T) {
	proxy, client := newTestProxy(t)

	sub := proxy.ChannelsUpdated().Subscribe(1)
	defer sub.Close()

	client.deliver(t, "dropbot/db3-001/event/channels-updated",
		`{"event":"channels-updated","actuated":[10,20]}`)

	got := <-sub.C
	if len(got) != 2 || got[0] != 10 || got[1] != 20 {
		t.Errorf("actuated = %v, want [10 20]", got)
	}
}

func TestSetActuatedChannelsCommand(t *testing.T) {
	proxy, client := newTestProxy(t)

	if err := proxy.SetActuatedChannels(context.Background(), []int{1, 2, 3}, true); err != nil {
		t.Fatalf("SetActuatedChannels() error: %v", err)
	}

	if len(client.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(client.published))
	}
	pub := client.published[0]
	if pub.topic != "dropbot/db3-001/command" {
		t.Errorf("topic = %s, want dropbot/db3-001/command", pub.topic)
	}

	var cmd map[string]any
	if err := json.Unmarshal(pub.payload, &cmd); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if cmd["command"] != "set_channels" {
		t.Errorf("command = %v, want set_channels", cmd["command"])
	}
	if cmd["replace"] != true {
		t.Errorf("replace = %v, want true", cmd["replace"])
	}
}

func TestSetCapacitanceUpdateIntervalReturnsPrevious(t *testing.T) {
	proxy, _ := newTestProxy(t)
	ctx := context.Background()

	prev, err := proxy.SetCapacitanceUpdateInterval(ctx, 25)
	if err != nil {
		t.Fatalf("SetCapacitanceUpdateInterval(25) error: %v", err)
	}
	if prev != 0 {
		t.Errorf("first call returned prev = %d, want 0 (reporting disabled at power-up)", prev)
	}

	prev, err = proxy.SetCapacitanceUpdateInterval(ctx, 0)
	if err != nil {
		t.Fatalf("SetCapacitanceUpdateInterval(0) error: %v", err)
	}
	if prev != 25 {
		t.Errorf("second call returned prev = %d, want 25", prev)
	}

	if _, err := proxy.SetCapacitanceUpdateInterval(ctx, -1); err == nil {
		t.Error("expected error for negative interval")
	}
}

func TestEnableEventRejectsUnknownEvent(t *testing.T) {
	proxy, _ := newTestProxy(t)

	if err := proxy.EnableEvent(context.Background(), "no-such-event"); err == nil {
		t.Error("expected error for unknown event name")
	}
}

func TestCloseReleasesSubscriptions(t *testing.T) {
	client := newFakeMQTT()
	proxy, err := ConnectMQTTProxy(client, "db3-001", 1)
	if err != nil {
		t.Fatalf("ConnectMQTTProxy() error: %v", err)
	}

	if err := proxy.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if len(client.handlers) != 0 {
		t.Errorf("%d handlers still registered after Close, want 0", len(client.handlers))
	}
}
