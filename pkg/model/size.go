package model

import "fmt"

// Size is the dimensions of a board.
type Size struct {
	Width  uint8 `json:"width"`
	Height uint8 `json:"height"`
}

// DefaultSize is the classic 10 by 10 board.
func DefaultSize() Size {
	return Size{Width: 10, Height: 10}
}

// Transposed swaps width and height.
func (s Size) Transposed() Size {
	return Size{Width: s.Height, Height: s.Width}
}

func (s Size) String() string {
	return fmt.Sprintf("[%d X %d]", s.Width, s.Height)
}
