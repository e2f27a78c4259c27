package messaging

import (
	"log"
	"regexp"
	"sync"
)

// Callback handles one dispatched message.
type Callback func(topic, payload string)

const queueSize = 64

type reqKind uint8

const (
	reqSubscribe reqKind = iota
	reqUnsubscribe
	reqPublish
)

type request struct {
	kind     reqKind
	topic    string
	payload  string
	retain   bool
	callback Callback
}

type subscription struct {
	re        *regexp.Regexp
	callbacks []Callback
}

// Adapter turns a raw broker connection into a callback-based pub/sub API.
// Three goroutines share the work: the network loop moves broker deliveries
// onto the inbound queue, the control loop applies subscribe, unsubscribe
// and publish requests in order, and the dispatch loop runs callbacks.
// Callbacks may call any Adapter method; those calls only enqueue requests,
// so a callback never touches the broker connection directly.
type Adapter struct {
	broker   Broker
	requests chan request
	inbound  chan Message
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu    sync.Mutex
	subs  map[string]*subscription
	order []string
}

// NewAdapter wraps a connected broker and starts the three loops.
func NewAdapter(b Broker) *Adapter {
	a := &Adapter{
		broker:   b,
		requests: make(chan request, queueSize),
		inbound:  make(chan Message, queueSize),
		quit:     make(chan struct{}),
		subs:     make(map[string]*subscription),
	}
	a.wg.Add(3)
	go a.networkLoop()
	go a.controlLoop()
	go a.dispatchLoop()
	return a
}

// Subscribe registers a callback for a topic filter. The callback is in
// place before the broker subscription goes out, so a retained replay
// cannot race past it.
func (a *Adapter) Subscribe(pattern string, cb Callback) {
	a.send(request{kind: reqSubscribe, topic: pattern, callback: cb})
}

// Unsubscribe removes a filter and every callback registered under it.
func (a *Adapter) Unsubscribe(pattern string) {
	a.send(request{kind: reqUnsubscribe, topic: pattern})
}

// Publish sends a non-retained payload.
func (a *Adapter) Publish(topic, payload string) {
	a.send(request{kind: reqPublish, topic: topic, payload: payload})
}

// Retain publishes a payload the broker keeps for future subscribers.
func (a *Adapter) Retain(topic, payload string) {
	a.send(request{kind: reqPublish, topic: topic, payload: payload, retain: true})
}

// Clear deletes a retained payload by retaining an empty one.
func (a *Adapter) Clear(topic string) {
	a.Retain(topic, "")
}

// AwaitTopic blocks until one message matches the pattern, then drops the
// subscription. It returns the concrete topic and the payload, or empty
// strings if the adapter stops first.
func (a *Adapter) AwaitTopic(pattern string) (string, string) {
	type delivery struct {
		topic   string
		payload string
	}
	ch := make(chan delivery, 1)
	a.Subscribe(pattern, func(topic, payload string) {
		select {
		case ch <- delivery{topic: topic, payload: payload}:
		default:
		}
	})
	select {
	case d := <-ch:
		a.Unsubscribe(pattern)
		return d.topic, d.payload
	case <-a.quit:
		return "", ""
	}
}

// AwaitResponse publishes a payload and blocks until a message matches the
// response pattern. The subscription is registered before the request goes
// out, so the response cannot slip past.
func (a *Adapter) AwaitResponse(topic, payload, responsePattern string) (string, string) {
	type delivery struct {
		topic   string
		payload string
	}
	ch := make(chan delivery, 1)
	a.Subscribe(responsePattern, func(topic, payload string) {
		select {
		case ch <- delivery{topic: topic, payload: payload}:
		default:
		}
	})
	a.Publish(topic, payload)
	select {
	case d := <-ch:
		a.Unsubscribe(responsePattern)
		return d.topic, d.payload
	case <-a.quit:
		return "", ""
	}
}

// Stop shuts down the three loops and waits for them to exit.
func (a *Adapter) Stop() {
	a.stopOnce.Do(func() { close(a.quit) })
	a.wg.Wait()
}

func (a *Adapter) send(r request) {
	select {
	case a.requests <- r:
	case <-a.quit:
	}
}

func (a *Adapter) networkLoop() {
	defer a.wg.Done()
	for {
		select {
		case <-a.quit:
			return
		case m, ok := <-a.broker.Messages():
			if !ok {
				return
			}
			select {
			case a.inbound <- m:
			case <-a.quit:
				return
			}
		}
	}
}

func (a *Adapter) controlLoop() {
	defer a.wg.Done()
	for {
		select {
		case <-a.quit:
			return
		case r := <-a.requests:
			a.handleRequest(r)
		}
	}
}

func (a *Adapter) handleRequest(r request) {
	switch r.kind {
	case reqSubscribe:
		re, err := compilePattern(r.topic)
		if err != nil {
			log.Printf("messaging: bad pattern %q: %v", r.topic, err)
			return
		}
		a.mu.Lock()
		if sub, ok := a.subs[r.topic]; ok {
			sub.callbacks = append(sub.callbacks, r.callback)
		} else {
			a.subs[r.topic] = &subscription{re: re, callbacks: []Callback{r.callback}}
			a.order = append(a.order, r.topic)
		}
		a.mu.Unlock()
		// Re-subscribing an existing filter is harmless and triggers a
		// fresh retained replay from the broker.
		if err := a.broker.Subscribe(r.topic); err != nil {
			log.Printf("messaging: subscribe %s: %v", r.topic, err)
		}
	case reqUnsubscribe:
		a.mu.Lock()
		if _, ok := a.subs[r.topic]; ok {
			delete(a.subs, r.topic)
			for i, p := range a.order {
				if p == r.topic {
					a.order = append(a.order[:i], a.order[i+1:]...)
					break
				}
			}
		}
		a.mu.Unlock()
		if err := a.broker.Unsubscribe(r.topic); err != nil {
			log.Printf("messaging: unsubscribe %s: %v", r.topic, err)
		}
	case reqPublish:
		if err := a.broker.Publish(r.topic, r.payload, r.retain); err != nil {
			log.Printf("messaging: publish %s: %v", r.topic, err)
		}
	}
}

func (a *Adapter) dispatchLoop() {
	defer a.wg.Done()
	for {
		select {
		case <-a.quit:
			return
		case m := <-a.inbound:
			a.dispatch(m)
		}
	}
}

func (a *Adapter) dispatch(m Message) {
	a.mu.Lock()
	var matched []Callback
	for _, pattern := range a.order {
		sub := a.subs[pattern]
		if pattern == m.Topic || sub.re.MatchString(m.Topic) {
			matched = append(matched, sub.callbacks...)
		}
	}
	a.mu.Unlock()

	// Callbacks run outside the registry lock so they can subscribe,
	// unsubscribe and publish freely.
	for _, cb := range matched {
		cb(m.Topic, m.Payload)
	}
}
