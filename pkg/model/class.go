package model

// Class identifies one of the five ship classes in a fleet.
type Class uint8

const (
	Carrier Class = iota
	Battleship
	Destroyer
	Submarine
	PatrolBoat
)

// FleetSize is the number of ships in a complete fleet, one per class.
const FleetSize = 5

// Classes lists every class in placement order.
var Classes = [FleetSize]Class{Carrier, Battleship, Destroyer, Submarine, PatrolBoat}

// Size is the length of a ship of this class in cells.
func (c Class) Size() int {
	switch c {
	case Carrier:
		return 5
	case Battleship:
		return 4
	case Destroyer, Submarine:
		return 3
	default:
		return 2
	}
}

func (c Class) String() string {
	switch c {
	case Carrier:
		return "carrier"
	case Battleship:
		return "battleship"
	case Destroyer:
		return "destroyer"
	case Submarine:
		return "submarine"
	default:
		return "patrolboat"
	}
}

// Token is the single-letter board marker for the class.
func (c Class) Token() string {
	switch c {
	case Carrier:
		return "C"
	case Battleship:
		return "B"
	case Destroyer:
		return "D"
	case Submarine:
		return "S"
	default:
		return "P"
	}
}

// ClassFromName resolves the lowercase class name used in topic paths.
func ClassFromName(name string) (Class, bool) {
	for _, c := range Classes {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}
