package messaging

// Message is a single delivery from the broker.
type Message struct {
	Topic    string
	Payload  string
	Retained bool
}

// Broker is the connection surface the adapter drives. Implementations
// deliver every message for the connection's subscriptions on the channel
// returned by Messages.
type Broker interface {
	Connect() error
	Subscribe(filter string) error
	Unsubscribe(filter string) error
	Publish(topic, payload string, retain bool) error
	Messages() <-chan Message
	Close()
}
