package messaging

import (
	"log"
	"regexp"
	"sort"
	"sync"
)

// MemoryBus is an in-process broker with MQTT retain and filter semantics.
// Every session connected to the bus receives every message matching one of
// its filters, including its own publications.
type MemoryBus struct {
	mu       sync.Mutex
	sessions map[*MemorySession]bool
	retained map[string]string
}

// NewMemoryBus builds an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		sessions: make(map[*MemorySession]bool),
		retained: make(map[string]string),
	}
}

// Session opens a new connection to the bus.
func (b *MemoryBus) Session() *MemorySession {
	s := &MemorySession{
		bus:     b,
		filters: make(map[string]*regexp.Regexp),
		msgs:    make(chan Message, 256),
	}
	b.mu.Lock()
	b.sessions[s] = true
	b.mu.Unlock()
	return s
}

// Retained returns the retained payload stored for a topic, if any.
func (b *MemoryBus) Retained(topic string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	payload, ok := b.retained[topic]
	return payload, ok
}

func (b *MemoryBus) publish(topic, payload string, retain bool) {
	b.mu.Lock()
	if retain {
		if payload == "" {
			delete(b.retained, topic)
		} else {
			b.retained[topic] = payload
		}
	}
	sessions := make([]*MemorySession, 0, len(b.sessions))
	for s := range b.sessions {
		sessions = append(sessions, s)
	}
	b.mu.Unlock()

	for _, s := range sessions {
		s.deliver(Message{Topic: topic, Payload: payload})
	}
}

// retainedMatching lists retained messages matching a filter, in topic order.
func (b *MemoryBus) retainedMatching(re *regexp.Regexp) []Message {
	b.mu.Lock()
	topics := make([]string, 0, len(b.retained))
	for topic := range b.retained {
		if re.MatchString(topic) {
			topics = append(topics, topic)
		}
	}
	msgs := make([]Message, 0, len(topics))
	sort.Strings(topics)
	for _, topic := range topics {
		msgs = append(msgs, Message{Topic: topic, Payload: b.retained[topic], Retained: true})
	}
	b.mu.Unlock()
	return msgs
}

func (b *MemoryBus) drop(s *MemorySession) {
	b.mu.Lock()
	delete(b.sessions, s)
	b.mu.Unlock()
}

// MemorySession is one connection to a MemoryBus.
type MemorySession struct {
	bus     *MemoryBus
	mu      sync.Mutex
	filters map[string]*regexp.Regexp
	msgs    chan Message
	closed  bool
}

// Connect is a no-op; the session is live from creation.
func (s *MemorySession) Connect() error {
	return nil
}

// Subscribe registers a filter and replays matching retained messages.
func (s *MemorySession) Subscribe(filter string) error {
	re, err := compilePattern(filter)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.filters[filter] = re
	s.mu.Unlock()
	for _, m := range s.bus.retainedMatching(re) {
		s.deliver(m)
	}
	return nil
}

// Unsubscribe drops a filter.
func (s *MemorySession) Unsubscribe(filter string) error {
	s.mu.Lock()
	delete(s.filters, filter)
	s.mu.Unlock()
	return nil
}

// Publish fans the message out to every session on the bus.
func (s *MemorySession) Publish(topic, payload string, retain bool) error {
	s.bus.publish(topic, payload, retain)
	return nil
}

// Messages is the inbound delivery channel.
func (s *MemorySession) Messages() <-chan Message {
	return s.msgs
}

// Filters lists the session's registered filters.
func (s *MemorySession) Filters() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	filters := make([]string, 0, len(s.filters))
	for f := range s.filters {
		filters = append(filters, f)
	}
	sort.Strings(filters)
	return filters
}

// Close disconnects the session from the bus.
func (s *MemorySession) Close() {
	s.bus.drop(s)
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.msgs)
	}
	s.mu.Unlock()
}

func (s *MemorySession) deliver(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	matched := false
	for f, re := range s.filters {
		if f == m.Topic || re.MatchString(m.Topic) {
			matched = true
			break
		}
	}
	if !matched {
		return
	}
	select {
	case s.msgs <- m:
	default:
		log.Printf("messaging: slow session, dropping message on %s", m.Topic)
	}
}
