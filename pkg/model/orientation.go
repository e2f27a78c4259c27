package model

// Orientation is the axis a ship extends along.
type Orientation string

const (
	Horizontal Orientation = "Horizontal"
	Vertical   Orientation = "Vertical"
)

// Valid reports whether o is one of the two known orientations.
func (o Orientation) Valid() bool {
	return o == Horizontal || o == Vertical
}

// Transposed flips the axis.
func (o Orientation) Transposed() Orientation {
	if o == Horizontal {
		return Vertical
	}
	return Horizontal
}
