package model

import "fmt"

// Point is a cell on the board.
type Point struct {
	X uint8 `json:"x"`
	Y uint8 `json:"y"`
}

// Transposed swaps the axes.
func (p Point) Transposed() Point {
	return Point{X: p.Y, Y: p.X}
}

func (p Point) String() string {
	return fmt.Sprintf("[%d; %d]", p.X, p.Y)
}
