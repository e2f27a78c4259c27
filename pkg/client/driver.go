// Package client implements the interactive player: it joins a game over
// the message bus, walks the user through fleet placement, and runs the
// turn loop until someone wins.
package client

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"battleship/pkg/codec"
	"battleship/pkg/messaging"
	"battleship/pkg/model"
)

type joinRequest struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

type placement struct {
	Coordinates model.Point       `json:"coordinates"`
	Orientation model.Orientation `json:"orientation"`
}

// placeResult is the outcome of one placement attempt.
type placeResult struct {
	approved bool
	message  string
}

// Driver runs one player's game from prompts to win screen.
type Driver struct {
	bus    *messaging.Adapter
	prompt *prompter
	out    io.Writer

	name   string
	prefix string
	secret string

	mu      sync.Mutex
	board   model.Player
	roster  []string
	sunkBy  map[string]bool

	stateCh   chan string
	currentCh chan string
	shotsCh   chan string
	winnerCh  chan string
}

// New builds a driver reading prompts from in and writing to out.
func New(bus *messaging.Adapter, in io.Reader, out io.Writer) *Driver {
	return &Driver{
		bus:       bus,
		prompt:    newPrompter(in, out),
		out:       out,
		sunkBy:    make(map[string]bool),
		stateCh:   make(chan string, 8),
		currentCh: make(chan string, 8),
		shotsCh:   make(chan string, 32),
		winnerCh:  make(chan string, 1),
	}
}

func randomSecret() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Run drives a full game: join, fleet placement, then salvos until the
// game ends.
func (d *Driver) Run() error {
	d.name = d.prompt.line("Please put in a playername: ")
	d.prefix = d.prompt.line("Enter your team channel: ")
	if d.name == "" || d.prefix == "" {
		return fmt.Errorf("playername and channel are required")
	}
	fmt.Fprintf(d.out, "%s playing on channel %s\n", d.name, d.prefix)

	d.secret = randomSecret()
	d.board = model.NewPlayer(d.name, d.secret, model.DefaultSize())

	d.join()
	d.placeFleet()
	d.watch()
	return d.play()
}

func (d *Driver) topic(suffix string) string {
	return "/" + d.prefix + "/" + suffix
}

func (d *Driver) playerTopic(name, suffix string) string {
	return "/" + d.prefix + "/players/" + name + "/" + suffix
}

// join announces the player and loops until the published roster contains
// the name. The players/list topic is retained, so the response may be a
// stale replay; retrying converges once the server has processed the join.
func (d *Driver) join() {
	payload, err := codec.Serialize(joinRequest{Name: d.name, Secret: d.secret})
	if err != nil {
		return
	}

	d.bus.Subscribe(d.topic("players/count"), func(_, count string) {
		fmt.Fprintf(d.out, "Number of players: %s\n", count)
	})

	for {
		_, list := d.bus.AwaitResponse(d.topic("game/request"), payload, d.topic("players/list"))
		var names []string
		if err := codec.Deserialize(list, &names); err == nil {
			for _, name := range names {
				if name == d.name {
					d.mu.Lock()
					d.roster = names
					d.mu.Unlock()
					return
				}
			}
		}
		time.Sleep(time.Millisecond)
	}
}

func (d *Driver) placeFleet() {
	for _, class := range model.Classes {
		d.placeShip(class)
	}
	fmt.Fprintln(d.out, "Waiting for game to start.")
}

// placeShip prompts for one placement and repeats until the server approves
// it. The approved/error subscriptions are installed before the request
// goes out, so the verdict cannot be missed.
func (d *Driver) placeShip(class model.Class) {
	results := make(chan placeResult, 4)
	approvedTopic := d.playerTopic(d.name, "ships/"+class.String()+"/approved")
	errorTopic := d.playerTopic(d.name, "ships/"+class.String()+"/error")

	d.bus.Subscribe(approvedTopic, func(_, payload string) {
		if payload == "true" {
			select {
			case results <- placeResult{approved: true}:
			default:
			}
		}
	})
	d.bus.Subscribe(errorTopic, func(_, payload string) {
		select {
		case results <- placeResult{message: payload}:
		default:
		}
	})
	defer d.bus.Unsubscribe(approvedTopic)
	defer d.bus.Unsubscribe(errorTopic)

	duplicate := fmt.Sprintf("%s class ship has already been placed!", class)

	for {
		fmt.Fprintf(d.out, "Enter coordinates [0 - 9] for %s:\n", class)
		pt := d.prompt.coordinates()
		orientation := d.prompt.orientation()
		fmt.Fprintf(d.out, "Requesting placement at %s, oriented %s.\n", pt, orientation)

		payload, err := codec.Serialize(placement{Coordinates: pt, Orientation: orientation})
		if err != nil {
			continue
		}
		d.bus.Publish(d.playerTopic(d.name, "ships/"+class.String()+"/place"), payload)

		res := <-results
		switch {
		case res.approved:
			fmt.Fprintf(d.out, "Placed %s successfully\n", class)
			d.mu.Lock()
			if placed, err := d.board.PlaceShip(model.NewShip(pt, orientation, class)); err == nil {
				d.board = placed
			}
			d.mu.Unlock()
			return
		case res.message == duplicate:
			// An earlier attempt went through; nothing left to do.
			return
		default:
			fmt.Fprintf(d.out, "Error received: %s\n", res.message)
			if d.prompt.eof {
				return
			}
		}
	}
}

// watch installs the persistent game-flow subscriptions feeding the turn
// loop. The retained topics replay their current value on subscribe, so a
// game that started during placement is picked up immediately.
func (d *Driver) watch() {
	push := func(ch chan string) messaging.Callback {
		return func(_, payload string) {
			select {
			case ch <- payload:
			default:
			}
		}
	}
	d.bus.Subscribe(d.topic("game/state"), push(d.stateCh))
	d.bus.Subscribe(d.topic("game/current"), push(d.currentCh))
	d.bus.Subscribe(d.topic("game/fired_shots"), push(d.shotsCh))
	d.bus.Subscribe(d.topic("game/winner"), push(d.winnerCh))

	d.bus.Subscribe(d.topic("players/+/defeated"), func(topic, payload string) {
		parts := strings.Split(topic, "/")
		if len(parts) == 5 && payload == "true" {
			d.mu.Lock()
			d.sunkBy[parts[3]] = true
			d.mu.Unlock()
			fmt.Fprintf(d.out, "%s's fleet has been destroyed!\n", parts[3])
		}
	})

	d.bus.Subscribe(d.playerTopic(d.name, "hit"), func(_, payload string) {
		var pt model.Point
		if err := codec.Deserialize(payload, &pt); err != nil {
			return
		}
		d.mu.Lock()
		if hit, _, ok := d.board.Shoot(pt); ok {
			d.board = hit
		}
		board := d.board.Board()
		d.mu.Unlock()
		fmt.Fprintf(d.out, "Incoming fire at %s!%s\n", pt, board)
	})
}

// play is the turn loop. It waits for the game to leave the lobby, then
// reacts to turn changes until a winner is announced.
func (d *Driver) play() error {
	for {
		select {
		case st := <-d.stateCh:
			if st == model.PhaseUnderway.String() {
				fmt.Fprintln(d.out, "The game is underway!")
			} else if st == model.PhaseOver.String() {
				return d.finish("")
			}
		case winner := <-d.winnerCh:
			return d.finish(winner)
		case current := <-d.currentCh:
			if current == d.name {
				if winner, over := d.salvo(); over {
					return d.finish(winner)
				}
			} else if current != "" {
				fmt.Fprintf(d.out, "%s's turn.\n", current)
			}
		}
	}
}

// salvo fires shots until the server's fired count reaches the active-ship
// count. Returns the winner and true if the game ended mid-salvo.
func (d *Driver) salvo() (string, bool) {
	d.mu.Lock()
	ships := d.board.ActiveShips()
	targets := make([]string, 0, len(d.roster))
	for _, name := range d.roster {
		if name != d.name && !d.sunkBy[name] {
			targets = append(targets, name)
		}
	}
	d.mu.Unlock()
	if len(targets) == 0 || ships == 0 {
		return "", false
	}

	// Drop shot counters left over from earlier turns.
	drained := false
	for !drained {
		select {
		case <-d.shotsCh:
		default:
			drained = true
		}
	}

	fmt.Fprintf(d.out, "Your turn. %d shots.\n", ships)
	for {
		target := d.chooseTarget(targets)
		fmt.Fprintln(d.out, "Put in some coordinates to fire at:")
		pt := d.prompt.coordinates()

		payload, err := codec.Serialize(pt)
		if err != nil {
			continue
		}
		d.bus.Publish(d.playerTopic(target, "fire"), payload)

		select {
		case shots := <-d.shotsCh:
			n, err := strconv.Atoi(shots)
			if err != nil {
				continue
			}
			if n >= ships {
				return "", false
			}
		case winner := <-d.winnerCh:
			return winner, true
		}
	}
}

func (d *Driver) chooseTarget(targets []string) string {
	if len(targets) == 1 {
		return targets[0]
	}
	for !d.prompt.eof {
		for i, name := range targets {
			fmt.Fprintf(d.out, "  [%d] %s\n", i, name)
		}
		idx := d.prompt.number("Choose player to attack: ")
		if idx >= 0 && idx < len(targets) {
			return targets[idx]
		}
	}
	return targets[0]
}

func (d *Driver) finish(winner string) error {
	if winner == "" {
		// The winner announcement may still be in flight.
		select {
		case winner = <-d.winnerCh:
		case <-time.After(time.Second):
		}
	}
	switch winner {
	case d.name:
		fmt.Fprintln(d.out, "You won!")
	case "":
		fmt.Fprintln(d.out, "Game over.")
	default:
		fmt.Fprintf(d.out, "Game over. %s won!\n", winner)
	}
	return nil
}
