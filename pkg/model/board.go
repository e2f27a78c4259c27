package model

import (
	"fmt"
	"strings"
)

func ruler(width uint8, left, inner, border, right string) string {
	var b strings.Builder
	b.WriteString(left)
	for i := uint8(0); i < width; i++ {
		b.WriteString(inner)
		b.WriteString(border)
	}
	b.WriteString(inner)
	b.WriteString(right)
	b.WriteString("\n")
	return b.String()
}

func topRuler(width uint8) string {
	return ruler(width, "    ╔", "══╧══", "╤", "╗")
}

func innerRuler(width uint8) string {
	return ruler(width, "    ╟", "─────", "┼", "╢")
}

func bottomRuler(width uint8) string {
	return ruler(width, "    ╚", "═════", "╧", "╝")
}

// Board renders the player's own grid with box-drawing borders, a column
// header, row labels and a marker per occupied cell.
func (p Player) Board() string {
	lastX := p.fieldSize.Width - 1
	lastY := p.fieldSize.Height - 1

	var b strings.Builder
	b.WriteString("\n\n     ")
	for x := uint8(0); x <= lastX; x++ {
		fmt.Fprintf(&b, "  %d   ", x)
	}
	b.WriteString("\n")

	for y := uint8(0); y <= lastY; y++ {
		if y == 0 {
			b.WriteString(topRuler(lastX))
		} else {
			b.WriteString(innerRuler(lastX))
		}
		fmt.Fprintf(&b, "  %d ╢", y)
		for x := uint8(0); x <= lastX; x++ {
			fmt.Fprintf(&b, " %s ", p.Probe(Point{X: x, Y: y}))
			if x == lastX {
				b.WriteString("║")
			} else {
				b.WriteString("│")
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(bottomRuler(lastX))
	return b.String()
}
