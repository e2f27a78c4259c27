package model

// Player is one fleet owner. The fleet keeps ships in placement order; a
// nil slot has not been filled yet.
type Player struct {
	Name      string
	Secret    string
	fleet     [FleetSize]*Ship
	status    Status
	fieldSize Size
}

// NewPlayer builds a player with an empty fleet on a board of the given size.
func NewPlayer(name, secret string, fieldSize Size) Player {
	return Player{
		Name:      name,
		Secret:    secret,
		status:    StatusRequested,
		fieldSize: fieldSize,
	}
}

// Status is the player's current match status.
func (p Player) Status() Status {
	return p.status
}

// FieldSize is the board the player's fleet lives on.
func (p Player) FieldSize() Size {
	return p.fieldSize
}

// Placed reports whether a ship of the given class is already in the fleet.
func (p Player) Placed(class Class) bool {
	for _, s := range p.fleet {
		if s != nil && s.Class == class {
			return true
		}
	}
	return false
}

// FleetSize is the number of ships placed so far.
func (p Player) FleetSize() int {
	n := 0
	for _, s := range p.fleet {
		if s != nil {
			n++
		}
	}
	return n
}

// IsFleetComplete reports whether all five classes have been placed.
func (p Player) IsFleetComplete() bool {
	return p.FleetSize() == FleetSize
}

// ActiveShips counts the placed ships that are not sunk.
func (p Player) ActiveShips() int {
	n := 0
	for _, s := range p.fleet {
		if s != nil && !s.IsSunk() {
			n++
		}
	}
	return n
}

// IsDefeated reports whether the player has no active ships left.
func (p Player) IsDefeated() bool {
	return p.ActiveShips() == 0
}

func (p Player) insideField(s Ship) bool {
	if s.Coordinates.X >= p.fieldSize.Width || s.Coordinates.Y >= p.fieldSize.Height {
		return false
	}
	limit := p.fieldSize.Width
	if s.Orientation == Vertical {
		limit = p.fieldSize.Height
	}
	return s.TailEnd() < limit
}

func (p Player) overlapping(s Ship) *Ship {
	for _, placed := range p.fleet {
		if placed != nil && placed.Overlaps(s) {
			return placed
		}
	}
	return nil
}

// CheckPlacement validates a placement without applying it. The checks run
// in a fixed order: duplicate class, then bounds, then overlap.
func (p Player) CheckPlacement(s Ship) error {
	if p.Placed(s.Class) {
		return &AlreadyPlacedError{Class: s.Class}
	}
	if !p.insideField(s) {
		return &OutOfBoundsError{
			Coordinates: s.Coordinates,
			Orientation: s.Orientation,
			Size:        s.Class.Size(),
		}
	}
	if placed := p.overlapping(s); placed != nil {
		return &OverlapError{Ship: *placed}
	}
	return nil
}

// PlaceShip validates the placement and returns the player with the ship
// appended to the fleet.
func (p Player) PlaceShip(s Ship) (Player, error) {
	if err := p.CheckPlacement(s); err != nil {
		return p, err
	}
	placed := p
	for i := range placed.fleet {
		if placed.fleet[i] == nil {
			ship := s
			placed.fleet[i] = &ship
			if placed.IsFleetComplete() {
				placed.status = StatusReady
			}
			return placed, nil
		}
	}
	return p, &AlreadyPlacedError{Class: s.Class}
}

// Probe describes the content of the board cell at pt.
func (p Player) Probe(pt Point) Occupation {
	for _, s := range p.fleet {
		if s != nil && s.IsHit(pt) {
			return s.Probe(pt)
		}
	}
	return Occupation{}
}

// Shoot applies a shot at pt. On a hit it returns the updated player and the
// struck ship (with the hit applied); the third return is false on a miss.
func (p Player) Shoot(pt Point) (Player, Ship, bool) {
	for i, s := range p.fleet {
		if s == nil {
			continue
		}
		if hit, ok := s.Shoot(pt); ok {
			updated := p
			ship := hit
			updated.fleet[i] = &ship
			if updated.IsDefeated() {
				updated.status = StatusDefeated
			}
			return updated, hit, true
		}
	}
	return p, Ship{}, false
}
