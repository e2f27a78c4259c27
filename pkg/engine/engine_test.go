package engine

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"battleship/pkg/messaging"
	"battleship/pkg/model"
	"battleship/pkg/store"
)

// recorder captures every message a test adapter receives on a filter.
type recorder struct {
	mu   sync.Mutex
	msgs []messaging.Message
}

func record(bus *messaging.Adapter, pattern string) *recorder {
	r := &recorder{}
	bus.Subscribe(pattern, func(topic, payload string) {
		r.mu.Lock()
		r.msgs = append(r.msgs, messaging.Message{Topic: topic, Payload: payload})
		r.mu.Unlock()
	})
	return r
}

func (r *recorder) countOf(topic, payload string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if m.Topic == topic && m.Payload == payload {
			n++
		}
	}
	return n
}

func (r *recorder) countMatch(topic string, pred func(string) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if m.Topic == topic && pred(m.Payload) {
			n++
		}
	}
	return n
}

// awaitCount blocks until the topic has carried the payload n times.
func (r *recorder) awaitCount(t *testing.T, topic, payload string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.countOf(topic, payload) >= n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q on %s (x%d)", payload, topic, n)
}

func (r *recorder) await(t *testing.T, topic, payload string) {
	t.Helper()
	r.awaitCount(t, topic, payload, 1)
}

func (r *recorder) awaitMatch(t *testing.T, topic string, pred func(string) bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.countMatch(topic, pred) > 0 {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for match on %s", topic)
}

// rig wires an engine and one observing client to a shared in-memory bus.
type rig struct {
	t      *testing.T
	bus    *messaging.MemoryBus
	cli    *messaging.Adapter
	rec    *recorder
	prefix string
}

func newRig(t *testing.T, prefix string, dice func(int) int, opts ...Option) *rig {
	t.Helper()
	bus := messaging.NewMemoryBus()

	server := messaging.NewAdapter(bus.Session())
	t.Cleanup(server.Stop)
	eng := New(server, model.DefaultSize(), prefix, append([]Option{WithDice(dice)}, opts...)...)
	eng.Start()

	cli := messaging.NewAdapter(bus.Session())
	t.Cleanup(cli.Stop)

	r := &rig{t: t, bus: bus, cli: cli, prefix: prefix}
	r.rec = record(cli, "/"+prefix+"/#")
	return r
}

func (r *rig) topic(suffix string) string {
	return "/" + r.prefix + "/" + suffix
}

func (r *rig) join(name string) {
	r.t.Helper()
	r.cli.Publish(r.topic("game/request"), fmt.Sprintf(`{"name":%q,"secret":""}`, name))
	r.rec.awaitMatch(r.t, r.topic("players/list"), func(payload string) bool {
		return strings.Contains(payload, `"`+name+`"`)
	})
}

func (r *rig) place(name string, class model.Class, pt model.Point, o model.Orientation) {
	r.cli.Publish(
		fmt.Sprintf("/%s/players/%s/ships/%s/place", r.prefix, name, class),
		fmt.Sprintf(`{"coordinates":{"x":%d,"y":%d},"orientation":%q}`, pt.X, pt.Y, o))
}

// placeFleet lays the whole fleet out horizontally, one class per row.
func (r *rig) placeFleet(name string) {
	r.t.Helper()
	for i, class := range model.Classes {
		r.place(name, class, model.Point{X: 0, Y: uint8(i)}, model.Horizontal)
		r.rec.await(r.t, fmt.Sprintf("/%s/players/%s/ships/%s/approved", r.prefix, name, class), "true")
	}
}

func (r *rig) fire(target string, pt model.Point) {
	r.cli.Publish(
		fmt.Sprintf("/%s/players/%s/fire", r.prefix, target),
		fmt.Sprintf(`{"x":%d,"y":%d}`, pt.X, pt.Y))
}

func TestLobbyJoinAndRoster(t *testing.T) {
	r := newRig(t, "g1", func(int) int { return 0 })

	r.join("alice")
	r.rec.await(t, r.topic("players/count"), "1")
	r.rec.await(t, r.topic("players/list"), `["alice"]`)

	r.join("bob")
	r.rec.await(t, r.topic("players/count"), "2")
	r.rec.await(t, r.topic("players/list"), `["alice","bob"]`)

	// Rejoining keeps the roster position and the count.
	r.join("alice")
	r.rec.awaitCount(t, r.topic("players/list"), `["alice","bob"]`, 2)
	if n := r.rec.countOf(r.topic("players/count"), "3"); n != 0 {
		t.Error("rejoin must not grow the roster")
	}

	// A join without a name is dropped.
	r.cli.Publish(r.topic("game/request"), `{"secret":"x"}`)
	time.Sleep(50 * time.Millisecond)
	if n := r.rec.countOf(r.topic("players/count"), "3"); n != 0 {
		t.Error("nameless join must be dropped")
	}
}

func TestPlacementRejections(t *testing.T) {
	r := newRig(t, "g2", func(int) int { return 0 })
	r.join("alice")

	r.place("alice", model.Carrier, model.Point{X: 0, Y: 0}, model.Horizontal)
	r.rec.await(t, r.topic("players/alice/ships/carrier/approved"), "true")
	r.rec.await(t, r.topic("players/alice/ships/count"), "1")

	// Same class again.
	r.place("alice", model.Carrier, model.Point{X: 0, Y: 5}, model.Horizontal)
	r.rec.await(t, r.topic("players/alice/ships/carrier/error"),
		"carrier class ship has already been placed!")

	// Sticking out of the board.
	r.place("alice", model.Battleship, model.Point{X: 7, Y: 2}, model.Horizontal)
	r.rec.await(t, r.topic("players/alice/ships/battleship/error"),
		"Ship is not placed (entirely) within the map! Coordinates: [7; 2], orientation: Horizontal, size: 4")

	// Crossing the carrier.
	r.place("alice", model.Battleship, model.Point{X: 2, Y: 0}, model.Vertical)
	r.rec.await(t, r.topic("players/alice/ships/battleship/error"),
		"This ship overlaps with ship of class carrier at [0; 0] (orientation: Horizontal)!")

	// Unreadable payload.
	r.cli.Publish(r.topic("players/alice/ships/battleship/place"), "not json")
	r.rec.awaitMatch(t, r.topic("players/alice/ships/battleship/error"), func(payload string) bool {
		return strings.HasPrefix(payload, "Deserializing ship failed:")
	})

	// Valid placements still go through afterwards.
	r.place("alice", model.Battleship, model.Point{X: 0, Y: 2}, model.Horizontal)
	r.rec.await(t, r.topic("players/alice/ships/battleship/approved"), "true")
	r.rec.await(t, r.topic("players/alice/ships/count"), "2")
}

func TestGameStartsWhenAllFleetsPlaced(t *testing.T) {
	r := newRig(t, "g3", func(int) int { return 1 })

	r.join("alice")
	r.join("bob")
	r.placeFleet("alice")
	r.placeFleet("bob")

	r.rec.await(t, r.topic("game/state"), "underway")
	r.rec.await(t, r.topic("game/fired_shots"), "0")
	// The dice picked index 1; that player fires first, not the one after.
	r.rec.await(t, r.topic("game/current"), "bob")

	if _, ok := r.bus.Retained(r.topic("players/alice/ships/carrier/approved")); ok {
		t.Error("expected approved flags to be cleared at start")
	}

	// The lobby is closed: joins and placements are ignored now.
	r.cli.Publish(r.topic("game/request"), `{"name":"carol","secret":""}`)
	r.place("alice", model.Carrier, model.Point{X: 5, Y: 9}, model.Horizontal)
	time.Sleep(50 * time.Millisecond)
	if n := r.rec.countOf(r.topic("players/count"), "3"); n != 0 {
		t.Error("join after start must be ignored")
	}
}

func TestFireHitsSinksAndRotatesTurn(t *testing.T) {
	r := newRig(t, "g4", func(int) int { return 0 })
	r.join("alice")
	r.join("bob")
	r.placeFleet("alice")
	r.placeFleet("bob")
	r.rec.await(t, r.topic("game/current"), "alice")

	// Five hits walk down bob's carrier.
	for i := 0; i < 5; i++ {
		r.fire("bob", model.Point{X: uint8(i), Y: 0})
		r.rec.await(t, r.topic("players/bob/hit"), fmt.Sprintf(`{"x":%d,"y":0}`, i))
		r.rec.await(t, r.topic("game/fired_shots"), strconv.Itoa(i+1))
	}

	r.rec.await(t, r.topic("players/bob/ships/carrier/sunk"), "true")
	r.rec.await(t, r.topic("players/bob/ships/count"), "4")
	if n := r.rec.countOf(r.topic("players/bob/defeated"), "true"); n != 0 {
		t.Error("bob still has ships, defeat must not be announced")
	}

	// Salvo spent: the turn moves on and the counter resets.
	r.rec.await(t, r.topic("game/current"), "bob")
	r.rec.awaitCount(t, r.topic("game/fired_shots"), "0", 2)
}

func TestMissesSpendShotsToo(t *testing.T) {
	r := newRig(t, "g5", func(int) int { return 0 })
	r.join("alice")
	r.join("bob")
	r.placeFleet("alice")
	r.placeFleet("bob")
	r.rec.await(t, r.topic("game/current"), "alice")

	for i := 0; i < 5; i++ {
		r.fire("bob", model.Point{X: 9, Y: 9})
		r.rec.await(t, r.topic("game/fired_shots"), strconv.Itoa(i+1))
	}
	r.rec.await(t, r.topic("game/current"), "bob")
	if n := r.rec.countOf(r.topic("players/bob/ships/carrier/sunk"), "true"); n != 0 {
		t.Error("open water shots must not sink anything")
	}
}

// gameScript tracks repeated counter values across turns so awaits can
// distinguish this turn's "1" from the last one's.
type gameScript struct {
	r       *rig
	fired   map[string]int
	current map[string]int
}

func newGameScript(r *rig) *gameScript {
	return &gameScript{r: r, fired: map[string]int{}, current: map[string]int{}}
}

func (s *gameScript) shot(target string, pt model.Point, counter int) {
	s.r.t.Helper()
	s.r.fire(target, pt)
	key := strconv.Itoa(counter)
	s.fired[key]++
	s.r.rec.awaitCount(s.r.t, s.r.topic("game/fired_shots"), key, s.fired[key])
}

func (s *gameScript) awaitTurn(name string) {
	s.r.t.Helper()
	s.current[name]++
	s.r.rec.awaitCount(s.r.t, s.r.topic("game/current"), name, s.current[name])
}

// missTurn spends a whole salvo on open water.
func (s *gameScript) missTurn(target string, shots int) {
	s.r.t.Helper()
	for i := 1; i <= shots; i++ {
		s.shot(target, model.Point{X: 9, Y: 9}, i)
	}
}

func TestFullGameDefeatAndCleanup(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "matches.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer db.Close()

	r := newRig(t, "g6", func(int) int { return 0 }, WithStore(db))
	r.join("alice")
	r.join("bob")
	r.placeFleet("alice")
	r.placeFleet("bob")

	s := newGameScript(r)
	s.awaitTurn("alice")

	// Alice walks bob's fleet row by row; bob wastes his salvos, which
	// shrink as his fleet goes down.
	for i := 0; i < 5; i++ {
		s.shot("bob", model.Point{X: uint8(i), Y: 0}, i+1) // carrier
	}
	s.awaitTurn("bob")
	s.missTurn("alice", 4)
	s.awaitTurn("alice")

	for i := 0; i < 4; i++ {
		s.shot("bob", model.Point{X: uint8(i), Y: 1}, i+1) // battleship
	}
	s.shot("bob", model.Point{X: 0, Y: 2}, 5) // destroyer, first hit
	s.awaitTurn("bob")
	s.missTurn("alice", 3)
	s.awaitTurn("alice")

	s.shot("bob", model.Point{X: 1, Y: 2}, 1)
	s.shot("bob", model.Point{X: 2, Y: 2}, 2) // destroyer down
	s.shot("bob", model.Point{X: 0, Y: 3}, 3)
	s.shot("bob", model.Point{X: 1, Y: 3}, 4)
	s.shot("bob", model.Point{X: 2, Y: 3}, 5) // submarine down
	s.awaitTurn("bob")
	s.missTurn("alice", 1)
	s.awaitTurn("alice")

	r.rec.await(t, r.topic("players/bob/ships/count"), "1")

	// The kill. No shot counter follows the final blow.
	s.shot("bob", model.Point{X: 0, Y: 4}, 1)
	r.fire("bob", model.Point{X: 1, Y: 4})

	r.rec.await(t, r.topic("players/bob/ships/patrolboat/sunk"), "true")
	r.rec.await(t, r.topic("players/bob/defeated"), "true")
	r.rec.await(t, r.topic("game/state"), "over")
	r.rec.await(t, r.topic("game/winner"), "alice")

	// Retained game state is wiped for the next match.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := r.bus.Retained(r.topic("game/state")); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("retained state never cleared")
		}
		time.Sleep(2 * time.Millisecond)
	}
	for _, topic := range []string{
		r.topic("players/count"),
		r.topic("players/list"),
		r.topic("game/fired_shots"),
		r.topic("game/current"),
		r.topic("players/bob/ships/count"),
		r.topic("players/alice/ships/count"),
	} {
		if _, ok := r.bus.Retained(topic); ok {
			t.Errorf("expected %s to be cleared", topic)
		}
	}

	// Shots after the game is over fall on deaf ears.
	r.fire("alice", model.Point{X: 0, Y: 0})
	time.Sleep(50 * time.Millisecond)
	if n := r.rec.countMatch(r.topic("players/alice/hit"), func(string) bool { return true }); n > 8 {
		t.Error("fire after game over must be ignored")
	}

	matches, err := db.RecentMatches(5)
	if err != nil {
		t.Fatalf("recent matches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 recorded match, got %d", len(matches))
	}
	m := matches[0]
	if m.Winner != "alice" || m.Prefix != "g6" {
		t.Errorf("unexpected match record %+v", m)
	}
	if len(m.Players) != 2 || m.Players[0] != "alice" || m.Players[1] != "bob" {
		t.Errorf("unexpected roster %v", m.Players)
	}
	if m.Shots == 0 {
		t.Error("expected a nonzero shot total")
	}
}

func TestTurnSkipsDefeatedPlayer(t *testing.T) {
	r := newRig(t, "g7", func(int) int { return 0 })
	r.join("alice")
	r.join("bob")
	r.join("carol")
	r.placeFleet("alice")
	r.placeFleet("bob")
	r.placeFleet("carol")

	s := newGameScript(r)
	s.awaitTurn("alice")

	// Three full rounds: alice grinds bob down, bob and carol miss.
	rows := [][]model.Point{
		{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}, {X: 4, Y: 0}},
		{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 1}, {X: 0, Y: 2}},
		{{X: 1, Y: 2}, {X: 2, Y: 2}, {X: 0, Y: 3}, {X: 1, Y: 3}, {X: 2, Y: 3}},
	}
	bobSalvo := []int{4, 3, 1}
	for round, pts := range rows {
		for i, pt := range pts {
			s.shot("bob", pt, i+1)
		}
		s.awaitTurn("bob")
		s.missTurn("alice", bobSalvo[round])
		s.awaitTurn("carol")
		s.missTurn("alice", 5)
		s.awaitTurn("alice")
	}

	// The patrolboat falls mid-salvo; the game keeps going because carol
	// still floats, and alice's remaining shots land in open water.
	s.shot("bob", model.Point{X: 0, Y: 4}, 1)
	s.shot("bob", model.Point{X: 1, Y: 4}, 2)
	r.rec.await(t, r.topic("players/bob/defeated"), "true")
	if n := r.rec.countOf(r.topic("game/winner"), "alice"); n != 0 {
		t.Fatal("game must not end while two players float")
	}
	s.shot("carol", model.Point{X: 9, Y: 9}, 3)
	s.shot("carol", model.Point{X: 9, Y: 9}, 4)
	s.shot("carol", model.Point{X: 9, Y: 9}, 5)

	// Bob is skipped: the turn goes straight to carol.
	s.awaitTurn("carol")
	s.missTurn("alice", 5)
	s.awaitTurn("alice")
}
