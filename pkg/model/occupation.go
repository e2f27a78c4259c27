package model

// OccupationKind classifies what a board cell holds.
type OccupationKind uint8

const (
	OccEmpty OccupationKind = iota
	OccShip
	OccSunk
)

// Occupation is the content of one board cell.
type Occupation struct {
	Kind  OccupationKind
	Class Class
	Hit   bool
}

// String renders the three-column board marker for the cell.
func (o Occupation) String() string {
	switch o.Kind {
	case OccShip:
		if o.Hit {
			return "[" + o.Class.Token() + "]"
		}
		return " " + o.Class.Token() + " "
	case OccSunk:
		return "↓" + o.Class.Token() + "↓"
	default:
		return "   "
	}
}
