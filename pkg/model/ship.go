package model

import (
	"encoding/json"
	"fmt"
)

// Ship is one placed ship. The hit flags are indexed by the cell's offset
// from the origin along the ship's orientation.
type Ship struct {
	Coordinates Point
	Orientation Orientation
	Class       Class
	hits        []bool
}

// NewShip builds an undamaged ship of the given class.
func NewShip(coordinates Point, orientation Orientation, class Class) Ship {
	return Ship{
		Coordinates: coordinates,
		Orientation: orientation,
		Class:       class,
		hits:        make([]bool, class.Size()),
	}
}

// shipWire is the placement payload. The class never travels in the payload,
// it comes from the topic the payload arrived on.
type shipWire struct {
	Coordinates Point       `json:"coordinates"`
	Orientation Orientation `json:"orientation"`
}

// ShipFromJSON parses a placement payload into a ship of the given class.
func ShipFromJSON(payload string, class Class) (Ship, error) {
	var w shipWire
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		return Ship{}, err
	}
	if !w.Orientation.Valid() {
		return Ship{}, fmt.Errorf("unknown orientation %q", w.Orientation)
	}
	return NewShip(w.Coordinates, w.Orientation, class), nil
}

func (s Ship) axisOrigin() uint8 {
	if s.Orientation == Vertical {
		return s.Coordinates.Y
	}
	return s.Coordinates.X
}

// TailEnd is the last cell the ship covers along its orientation.
func (s Ship) TailEnd() uint8 {
	return s.axisOrigin() + uint8(s.Class.Size()) - 1
}

// Range is the interval of cells the ship covers along its orientation.
func (s Ship) Range() Range {
	return NewRange(s.axisOrigin(), s.TailEnd())
}

// TransposedTo returns the ship rotated into the given orientation, with its
// coordinates swapped accordingly. A ship already oriented that way is
// returned unchanged.
func (s Ship) TransposedTo(o Orientation) Ship {
	if s.Orientation == o {
		return s
	}
	t := s
	t.Coordinates = s.Coordinates.Transposed()
	t.Orientation = s.Orientation.Transposed()
	return t
}

// Overlaps reports whether the two ships share at least one cell.
func (s Ship) Overlaps(other Ship) bool {
	if s.Coordinates == other.Coordinates {
		return true
	}
	if s.Orientation == other.Orientation {
		a := s.TransposedTo(Horizontal)
		b := other.TransposedTo(Horizontal)
		return a.Coordinates.Y == b.Coordinates.Y && a.Range().Overlaps(b.Range())
	}
	// Perpendicular: each ship's fixed axis must cross the other's span.
	a := s.TransposedTo(Horizontal)
	b := other.TransposedTo(Vertical)
	return a.Range().Contains(b.Coordinates.X) && b.Range().Contains(a.Coordinates.Y)
}

// IsHit reports whether the point lies on the ship.
func (s Ship) IsHit(p Point) bool {
	if s.Orientation == Horizontal {
		return s.Coordinates.Y == p.Y && s.Range().Contains(p.X)
	}
	return s.Coordinates.X == p.X && s.Range().Contains(p.Y)
}

// localIndex maps a point on the ship to its hit-flag slot.
func (s Ship) localIndex(p Point) int {
	if s.Orientation == Horizontal {
		return int(p.X - s.Coordinates.X)
	}
	return int(p.Y - s.Coordinates.Y)
}

// Shoot returns the ship with the cell at p marked hit. The second return
// is false when the shot misses, in which case the ship is unchanged.
func (s Ship) Shoot(p Point) (Ship, bool) {
	if !s.IsHit(p) {
		return s, false
	}
	hit := s
	hit.hits = append([]bool(nil), s.hits...)
	hit.hits[s.localIndex(p)] = true
	return hit, true
}

// IsSunk reports whether every cell of the ship has been hit.
func (s Ship) IsSunk() bool {
	for _, h := range s.hits {
		if !h {
			return false
		}
	}
	return true
}

// Probe describes what sits at p from this ship's point of view.
func (s Ship) Probe(p Point) Occupation {
	if !s.IsHit(p) {
		return Occupation{}
	}
	if s.IsSunk() {
		return Occupation{Kind: OccSunk, Class: s.Class}
	}
	return Occupation{Kind: OccShip, Class: s.Class, Hit: s.hits[s.localIndex(p)]}
}
