package messaging

import (
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	qosExactlyOnce = 2
	keepAlive      = 5 * time.Second
	disconnectMs   = 250
)

// PahoBroker is the MQTT-backed Broker. All traffic runs at QoS 2 so every
// shot and placement arrives exactly once.
type PahoBroker struct {
	client mqtt.Client
	msgs   chan Message
}

// NewPahoBroker prepares a broker connection. The username travels with an
// empty password; call Connect before use.
func NewPahoBroker(host string, port int, user, clientID string) *PahoBroker {
	b := &PahoBroker{msgs: make(chan Message, 64)}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", host, port))
	opts.SetClientID(clientID)
	opts.SetUsername(user)
	opts.SetPassword("")
	opts.SetKeepAlive(keepAlive)
	opts.SetDefaultPublishHandler(func(_ mqtt.Client, m mqtt.Message) {
		if !utf8.Valid(m.Payload()) {
			log.Printf("messaging: dropping non-UTF-8 payload on %s", m.Topic())
			return
		}
		b.msgs <- Message{Topic: m.Topic(), Payload: string(m.Payload()), Retained: m.Retained()}
	})

	b.client = mqtt.NewClient(opts)
	return b
}

// Connect dials the broker and blocks until the session is up.
func (b *PahoBroker) Connect() error {
	token := b.client.Connect()
	token.Wait()
	return token.Error()
}

// Subscribe registers a filter at QoS 2. Messages arrive through the default
// publish handler, so a nil per-subscription handler is passed.
func (b *PahoBroker) Subscribe(filter string) error {
	token := b.client.Subscribe(filter, qosExactlyOnce, nil)
	token.Wait()
	return token.Error()
}

// Unsubscribe drops a filter.
func (b *PahoBroker) Unsubscribe(filter string) error {
	token := b.client.Unsubscribe(filter)
	token.Wait()
	return token.Error()
}

// Publish sends a payload at QoS 2, optionally retained.
func (b *PahoBroker) Publish(topic, payload string, retain bool) error {
	token := b.client.Publish(topic, qosExactlyOnce, retain, payload)
	token.Wait()
	return token.Error()
}

// Messages is the inbound delivery channel.
func (b *PahoBroker) Messages() <-chan Message {
	return b.msgs
}

// Close disconnects from the broker.
func (b *PahoBroker) Close() {
	b.client.Disconnect(disconnectMs)
}
