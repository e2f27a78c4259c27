package model

// Game holds the roster and lifecycle state of one match. It carries no
// locking of its own; the engine guards it.
type Game struct {
	State   GameState
	Players []Player
	Size    Size
	Prefix  string
}

// NewGame builds an empty lobby for the given board size and topic prefix.
func NewGame(size Size, prefix string) *Game {
	return &Game{
		State:  GameState{Phase: PhaseLobby},
		Size:   size,
		Prefix: prefix,
	}
}

// PlayerCount is the roster size.
func (g *Game) PlayerCount() int {
	return len(g.Players)
}

// PlayerNames lists the roster in join order.
func (g *Game) PlayerNames() []string {
	names := make([]string, len(g.Players))
	for i, p := range g.Players {
		names[i] = p.Name
	}
	return names
}

// FindPlayer returns the roster index for the name, or -1.
func (g *Game) FindPlayer(name string) int {
	for i, p := range g.Players {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Player returns the roster entry at i.
func (g *Game) Player(i int) Player {
	return g.Players[i]
}

// UpdatePlayer replaces the roster entry with the same name in place, or
// appends a new one. Roster order never changes for existing players.
func (g *Game) UpdatePlayer(p Player) {
	if i := g.FindPlayer(p.Name); i >= 0 {
		g.Players[i] = p
		return
	}
	g.Players = append(g.Players, p)
}

// ReadyPlayers counts players with a complete fleet.
func (g *Game) ReadyPlayers() int {
	n := 0
	for _, p := range g.Players {
		if p.IsFleetComplete() {
			n++
		}
	}
	return n
}

// ActivePlayers counts players that still have ships afloat.
func (g *Game) ActivePlayers() int {
	n := 0
	for _, p := range g.Players {
		if !p.IsDefeated() {
			n++
		}
	}
	return n
}

// Start moves the game underway. The dice picks the starting player; that
// player fires first.
func (g *Game) Start(dice func(n int) int) {
	first := dice(len(g.Players))
	g.State = GameState{
		Phase:        PhaseUnderway,
		CurrentIndex: first,
		CurrentName:  g.Players[first].Name,
	}
}

// NextTurn hands the turn to the next player that is not defeated and
// resets the shot counters.
func (g *Game) NextTurn() {
	i := g.State.CurrentIndex
	for range g.Players {
		i = (i + 1) % len(g.Players)
		if !g.Players[i].IsDefeated() {
			break
		}
	}
	g.State.CurrentIndex = i
	g.State.CurrentName = g.Players[i].Name
	g.State.FiredShots = 0
	g.State.Hits = 0
}

// GameOver ends the game. The winner is the first player still afloat.
func (g *Game) GameOver() {
	winner := ""
	for _, p := range g.Players {
		if !p.IsDefeated() {
			winner = p.Name
			break
		}
	}
	g.State = GameState{Phase: PhaseOver, Winner: winner}
}
