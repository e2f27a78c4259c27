package model

// Range is a closed interval of cells along one board axis.
type Range struct {
	Min uint8
	Max uint8
}

// NewRange builds the interval [a, b], normalizing the bounds.
func NewRange(a, b uint8) Range {
	if a > b {
		a, b = b, a
	}
	return Range{Min: a, Max: b}
}

// Contains reports whether x lies inside the interval.
func (r Range) Contains(x uint8) bool {
	return r.Min <= x && x <= r.Max
}

// Overlaps reports whether the two intervals share at least one cell.
func (r Range) Overlaps(o Range) bool {
	return r.Min <= o.Max && o.Min <= r.Max
}
