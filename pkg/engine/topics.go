package engine

import (
	"fmt"

	"battleship/pkg/model"
)

// topics builds the topic paths for one game prefix.
type topics struct {
	prefix string
}

func (t topics) request() string {
	return fmt.Sprintf("/%s/game/request", t.prefix)
}

func (t topics) serverUp() string {
	return fmt.Sprintf("/%s/game/server", t.prefix)
}

func (t topics) state() string {
	return fmt.Sprintf("/%s/game/state", t.prefix)
}

func (t topics) current() string {
	return fmt.Sprintf("/%s/game/current", t.prefix)
}

func (t topics) firedShots() string {
	return fmt.Sprintf("/%s/game/fired_shots", t.prefix)
}

func (t topics) winner() string {
	return fmt.Sprintf("/%s/game/winner", t.prefix)
}

func (t topics) playersCount() string {
	return fmt.Sprintf("/%s/players/count", t.prefix)
}

func (t topics) playersList() string {
	return fmt.Sprintf("/%s/players/list", t.prefix)
}

func (t topics) place(player string, class model.Class) string {
	return fmt.Sprintf("/%s/players/%s/ships/%s/place", t.prefix, player, class)
}

func (t topics) approved(player string, class model.Class) string {
	return fmt.Sprintf("/%s/players/%s/ships/%s/approved", t.prefix, player, class)
}

func (t topics) placementError(player string, class model.Class) string {
	return fmt.Sprintf("/%s/players/%s/ships/%s/error", t.prefix, player, class)
}

func (t topics) sunk(player string, class model.Class) string {
	return fmt.Sprintf("/%s/players/%s/ships/%s/sunk", t.prefix, player, class)
}

func (t topics) shipsCount(player string) string {
	return fmt.Sprintf("/%s/players/%s/ships/count", t.prefix, player)
}

func (t topics) defeated(player string) string {
	return fmt.Sprintf("/%s/players/%s/defeated", t.prefix, player)
}

func (t topics) fire(player string) string {
	return fmt.Sprintf("/%s/players/%s/fire", t.prefix, player)
}

func (t topics) hit(player string) string {
	return fmt.Sprintf("/%s/players/%s/hit", t.prefix, player)
}
