package model

import "fmt"

// Phase is the coarse lifecycle stage of a game.
type Phase uint8

const (
	PhaseLobby Phase = iota
	PhaseUnderway
	PhaseOver
)

// String is the wire form published on the game state topic.
func (p Phase) String() string {
	switch p {
	case PhaseUnderway:
		return "underway"
	case PhaseOver:
		return "over"
	default:
		return "lobby"
	}
}

// GameState is the full lifecycle state of a game. CurrentIndex and
// CurrentName identify whose turn it is while the game is underway;
// FiredShots and Hits count the shots of the running turn.
type GameState struct {
	Phase        Phase
	CurrentIndex int
	CurrentName  string
	FiredShots   uint8
	Hits         uint8
	Winner       string
}

// String is the human-readable display form.
func (s GameState) String() string {
	switch s.Phase {
	case PhaseUnderway:
		return fmt.Sprintf("%s's turn. %d shots to go.", s.CurrentName, FleetSize-s.FiredShots)
	case PhaseOver:
		return fmt.Sprintf("Game over. %s won!", s.Winner)
	default:
		return "Lobby"
	}
}
