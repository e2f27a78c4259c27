// Package observer bridges the game's broker traffic to read-only WebSocket
// spectators. It never publishes to the broker, so gameplay is unaffected.
package observer

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"battleship/pkg/engine"
	"battleship/pkg/messaging"
	"battleship/pkg/store"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	sendBufSize   = 256
	snapshotEvery = 2 * time.Second
)

// Envelope wraps outgoing spectator messages.
type Envelope struct {
	T    string `json:"t"`
	Data any    `json:"d,omitempty"`
}

// TopicMsg mirrors one broker message onto the spectator feed.
type TopicMsg struct {
	Topic   string `json:"topic"`
	Payload string `json:"payload"`
}

// Server fans broker traffic and periodic game snapshots out to WebSocket
// spectators.
type Server struct {
	bus     *messaging.Adapter
	prefix  string
	summary func() engine.Summary
	db      *store.DB
	secret  []byte

	mu      sync.Mutex
	clients map[*client]bool

	stop     chan struct{}
	stopOnce sync.Once
}

// New builds a spectator server for the given game prefix. The summary
// function supplies the periodic snapshot; db may be nil.
func New(bus *messaging.Adapter, prefix string, summary func() engine.Summary, db *store.DB) *Server {
	return &Server{
		bus:     bus,
		prefix:  prefix,
		summary: summary,
		db:      db,
		secret:  newSecret(),
		clients: make(map[*client]bool),
		stop:    make(chan struct{}),
	}
}

// Start subscribes the bridge to the game's topic tree and begins the
// snapshot ticker. The admin token for /stats is printed once.
func (s *Server) Start() {
	s.bus.Subscribe("/"+s.prefix+"/#", s.onMessage)
	go s.snapshotLoop()
	log.Printf("observer: admin token: %s", s.adminToken())
}

// Stop ends the snapshot loop and closes every spectator connection.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.bus.Unsubscribe("/" + s.prefix + "/#")

	s.mu.Lock()
	for c := range s.clients {
		close(c.send)
		delete(s.clients, c)
	}
	s.mu.Unlock()
}

func (s *Server) onMessage(topic, payload string) {
	data, err := json.Marshal(Envelope{T: "topic", Data: TopicMsg{Topic: topic, Payload: payload}})
	if err != nil {
		log.Printf("observer: marshal error: %v", err)
		return
	}
	s.broadcast(data, false)
}

func (s *Server) snapshotLoop() {
	ticker := time.NewTicker(snapshotEvery)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			data, err := msgpack.Marshal(s.summary())
			if err != nil {
				log.Printf("observer: snapshot encode: %v", err)
				continue
			}
			s.broadcast(data, true)
		}
	}
}

// broadcast queues data on every spectator. Binary payloads get the 0xFF
// marker so the write pump picks the right frame type. Slow clients drop
// messages instead of blocking the bridge.
func (s *Server) broadcast(data []byte, binary bool) {
	msg := data
	if binary {
		msg = make([]byte, len(data)+1)
		msg[0] = 0xFF
		copy(msg[1:], data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	if s.clients[c] {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
}
