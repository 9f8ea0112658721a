package mqtt

import (
	"fmt"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

// NewClient initializes and returns a connected MQTT client.
func NewClient(broker, clientID string) (MQTT.Client, error) {
	opts := MQTT.NewClientOptions().AddBroker(broker).SetClientID(clientID).SetAutoReconnect(true)
	c := MQTT.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return c, nil
}

// Sink adapts a paho client to the dispatcher's Publisher interface.
type Sink struct {
	client  MQTT.Client
	timeout time.Duration
}

// NewSink wraps an MQTT client as a command sink.
func NewSink(client MQTT.Client, timeout time.Duration) *Sink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Sink{client: client, timeout: timeout}
}

// Publish sends a command at QoS 1 and waits for the broker ack.
func (s *Sink) Publish(topic, payload string) error {
	token := s.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("publish to %s timed out after %s", topic, s.timeout)
	}
	return token.Error()
}
