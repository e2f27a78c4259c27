// Package engine runs the server side of a game: it owns the roster and
// lifecycle state and talks to the players exclusively through the message
// bus.
package engine

import (
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"battleship/pkg/codec"
	"battleship/pkg/messaging"
	"battleship/pkg/model"
	"battleship/pkg/store"
)

// publication is one outgoing message collected under the engine lock and
// sent after it is released.
type publication struct {
	topic   string
	payload string
	retain  bool
}

// Engine drives one game over the message bus.
type Engine struct {
	bus    *messaging.Adapter
	topics topics
	dice   func(n int) int
	db     *store.DB

	mu         sync.Mutex
	game       *model.Game
	startedAt  time.Time
	totalShots int
}

// Option configures an Engine.
type Option func(*Engine)

// WithDice overrides the starting-player roll.
func WithDice(dice func(n int) int) Option {
	return func(e *Engine) { e.dice = dice }
}

// WithStore attaches a database for completed-match records.
func WithStore(db *store.DB) Option {
	return func(e *Engine) { e.db = db }
}

// New builds an engine for the given board size and topic prefix.
func New(bus *messaging.Adapter, size model.Size, prefix string, opts ...Option) *Engine {
	e := &Engine{
		bus:    bus,
		topics: topics{prefix: prefix},
		dice:   rand.Intn,
		game:   model.NewGame(size, prefix),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start opens the lobby: it subscribes the join endpoint and announces the
// server on the bus.
func (e *Engine) Start() {
	e.bus.Subscribe(e.topics.request(), e.handleJoin)
	e.bus.Publish(e.topics.serverUp(), "up")
}

type joinRequest struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

func (e *Engine) handleJoin(topic, payload string) {
	log.Printf("engine: received %s on %s", payload, topic)

	var req joinRequest
	if err := codec.Deserialize(payload, &req); err != nil {
		log.Printf("engine: dropping join request: %v", err)
		return
	}
	if req.Name == "" {
		log.Printf("engine: dropping join request without a name")
		return
	}

	e.mu.Lock()
	if e.game.State.Phase != model.PhaseLobby {
		e.mu.Unlock()
		return
	}
	fresh := e.game.FindPlayer(req.Name) < 0
	e.game.UpdatePlayer(model.NewPlayer(req.Name, req.Secret, e.game.Size))
	count := e.game.PlayerCount()
	names := e.game.PlayerNames()
	e.mu.Unlock()

	// A rejoin under the same name replaces the roster entry; its
	// placement handlers are already installed.
	if fresh {
		for _, class := range model.Classes {
			e.subscribePlacement(req.Name, class)
		}
	}

	e.bus.Retain(e.topics.playersCount(), strconv.Itoa(count))
	if list, err := codec.Serialize(names); err == nil {
		e.bus.Retain(e.topics.playersList(), list)
	}
}

func (e *Engine) subscribePlacement(name string, class model.Class) {
	e.bus.Subscribe(e.topics.place(name, class), func(_, payload string) {
		e.handlePlace(name, class, payload)
	})
}

func (e *Engine) handlePlace(name string, class model.Class, payload string) {
	ship, err := model.ShipFromJSON(payload, class)
	if err != nil {
		e.bus.Publish(e.topics.placementError(name, class),
			fmt.Sprintf("Deserializing ship failed: %v", err))
		return
	}

	e.mu.Lock()
	idx := e.game.FindPlayer(name)
	if idx < 0 {
		e.mu.Unlock()
		return
	}
	placed, err := e.game.Player(idx).PlaceShip(ship)
	if err != nil {
		e.mu.Unlock()
		e.bus.Publish(e.topics.placementError(name, class), err.Error())
		return
	}
	e.game.UpdatePlayer(placed)
	ships := placed.ActiveShips()
	allReady := e.game.ReadyPlayers() == e.game.PlayerCount()
	e.mu.Unlock()

	e.bus.Retain(e.topics.shipsCount(name), strconv.Itoa(ships))
	e.bus.Retain(e.topics.approved(name, class), "true")
	log.Printf("engine: %s placed a %s", name, class)

	if allReady {
		e.startGame()
	}
}

// startGame moves the match underway: the lobby closes, placement endpoints
// are torn down, and the dice picks who fires first.
func (e *Engine) startGame() {
	e.bus.Unsubscribe(e.topics.request())

	e.mu.Lock()
	names := e.game.PlayerNames()
	e.game.Start(e.dice)
	st := e.game.State
	e.startedAt = time.Now()
	e.mu.Unlock()

	for _, name := range names {
		for _, class := range model.Classes {
			e.bus.Clear(e.topics.approved(name, class))
			e.bus.Unsubscribe(e.topics.place(name, class))
		}
	}

	e.bus.Retain(e.topics.state(), st.Phase.String())
	e.publishTurn(st)

	for _, name := range names {
		e.subscribeFire(name)
	}
	log.Printf("engine: game underway, %s fires first", st.CurrentName)
}

func (e *Engine) publishTurn(st model.GameState) {
	e.bus.Retain(e.topics.firedShots(), strconv.Itoa(int(st.FiredShots)))
	e.bus.Retain(e.topics.current(), st.CurrentName)
}

func (e *Engine) subscribeFire(target string) {
	e.bus.Subscribe(e.topics.fire(target), func(_, payload string) {
		e.handleFire(target, payload)
	})
}

func (e *Engine) handleFire(target, payload string) {
	var pt model.Point
	if err := codec.Deserialize(payload, &pt); err != nil {
		log.Printf("engine: dropping shot at %s: %v", target, err)
		return
	}

	var pubs []publication

	e.mu.Lock()
	if e.game.State.Phase != model.PhaseUnderway {
		e.mu.Unlock()
		return
	}
	targetIdx := e.game.FindPlayer(target)
	if targetIdx < 0 {
		e.mu.Unlock()
		return
	}
	shooter := e.game.Player(e.game.State.CurrentIndex)

	// Everyone watching the target's hit topic sees the shot, whether or
	// not it lands.
	if coords, err := codec.Serialize(pt); err == nil {
		pubs = append(pubs, publication{topic: e.topics.hit(target), payload: coords})
	}

	e.totalShots++
	st := e.game.State
	st.FiredShots++

	if hit, ship, ok := e.game.Player(targetIdx).Shoot(pt); ok {
		st.Hits++
		e.game.UpdatePlayer(hit)
		log.Printf("engine: %s hit %s's %s", shooter.Name, target, ship.Class)
		if ship.IsSunk() {
			pubs = append(pubs, publication{topic: e.topics.sunk(target, ship.Class), payload: "true"})
			pubs = append(pubs, publication{topic: e.topics.shipsCount(target), payload: strconv.Itoa(hit.ActiveShips()), retain: true})
			if hit.IsDefeated() {
				pubs = append(pubs, publication{topic: e.topics.defeated(target), payload: "true"})
				if e.game.ActivePlayers() == 1 {
					e.game.State = st
					e.finishLocked(&pubs)
					e.mu.Unlock()
					e.flush(pubs)
					return
				}
			}
		}
	}

	e.game.State = st
	pubs = append(pubs, publication{topic: e.topics.firedShots(), payload: strconv.Itoa(int(st.FiredShots)), retain: true})
	if int(st.FiredShots) >= shooter.ActiveShips() {
		e.game.NextTurn()
		next := e.game.State
		pubs = append(pubs, publication{topic: e.topics.firedShots(), payload: strconv.Itoa(int(next.FiredShots)), retain: true})
		pubs = append(pubs, publication{topic: e.topics.current(), payload: next.CurrentName, retain: true})
	}
	e.mu.Unlock()

	e.flush(pubs)
}

// finishLocked ends the game. It is called with the engine lock held and
// only appends to pubs; the caller flushes after unlocking.
func (e *Engine) finishLocked(pubs *[]publication) {
	names := e.game.PlayerNames()
	for _, name := range names {
		*pubs = append(*pubs, publication{topic: e.topics.shipsCount(name), retain: true})
		e.bus.Unsubscribe(e.topics.fire(name))
	}
	for _, topic := range []string{
		e.topics.state(),
		e.topics.playersCount(),
		e.topics.playersList(),
		e.topics.firedShots(),
		e.topics.current(),
	} {
		*pubs = append(*pubs, publication{topic: topic, retain: true})
	}

	e.game.GameOver()
	winner := e.game.State.Winner
	*pubs = append(*pubs, publication{topic: e.topics.state(), payload: e.game.State.Phase.String()})
	*pubs = append(*pubs, publication{topic: e.topics.winner(), payload: winner})

	if e.db != nil {
		duration := time.Since(e.startedAt).Seconds()
		if _, err := e.db.RecordMatch(e.game.Prefix, winner, names, e.totalShots, duration); err != nil {
			log.Printf("engine: record match: %v", err)
		}
	}
	log.Printf("engine: game over, %s wins", winner)
}

func (e *Engine) flush(pubs []publication) {
	for _, p := range pubs {
		if p.retain {
			e.bus.Retain(p.topic, p.payload)
		} else {
			e.bus.Publish(p.topic, p.payload)
		}
	}
}

// PlayerSummary is one roster entry in a Summary.
type PlayerSummary struct {
	Name     string `json:"name" msgpack:"name"`
	Ships    int    `json:"ships" msgpack:"ships"`
	Defeated bool   `json:"defeated" msgpack:"defeated"`
}

// Summary is a read-only snapshot of the game for observers.
type Summary struct {
	Prefix     string          `json:"prefix" msgpack:"prefix"`
	State      string          `json:"state" msgpack:"state"`
	Current    string          `json:"current,omitempty" msgpack:"current"`
	Winner     string          `json:"winner,omitempty" msgpack:"winner"`
	FiredShots int             `json:"fired_shots" msgpack:"fired_shots"`
	Players    []PlayerSummary `json:"players" msgpack:"players"`
}

// Summary snapshots the current game for the spectator endpoints.
func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Summary{
		Prefix:     e.game.Prefix,
		State:      e.game.State.Phase.String(),
		FiredShots: int(e.game.State.FiredShots),
		Players:    make([]PlayerSummary, 0, e.game.PlayerCount()),
	}
	switch e.game.State.Phase {
	case model.PhaseUnderway:
		s.Current = e.game.State.CurrentName
	case model.PhaseOver:
		s.Winner = e.game.State.Winner
	}
	for _, name := range e.game.PlayerNames() {
		p := e.game.Player(e.game.FindPlayer(name))
		s.Players = append(s.Players, PlayerSummary{
			Name:     p.Name,
			Ships:    p.ActiveShips(),
			Defeated: p.IsDefeated(),
		})
	}
	return s
}
