package model

import "fmt"

// AlreadyPlacedError rejects a second placement of the same class.
type AlreadyPlacedError struct {
	Class Class
}

func (e *AlreadyPlacedError) Error() string {
	return fmt.Sprintf("%s class ship has already been placed!", e.Class)
}

// OutOfBoundsError rejects a ship that sticks out of the board.
type OutOfBoundsError struct {
	Coordinates Point
	Orientation Orientation
	Size        int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("Ship is not placed (entirely) within the map! Coordinates: %s, orientation: %s, size: %d",
		e.Coordinates, e.Orientation, e.Size)
}

// OverlapError rejects a ship that crosses an already placed one. It carries
// the ship that was already there.
type OverlapError struct {
	Ship Ship
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("This ship overlaps with ship of class %s at %s (orientation: %s)!",
		e.Ship.Class, e.Ship.Coordinates, e.Ship.Orientation)
}
