package client

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"battleship/pkg/model"
)

// prompter reads interactive input line by line. Once the input runs out
// every prompt returns its zero answer instead of looping.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
	eof bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

// line prints the prompt and returns the next trimmed input line.
func (p *prompter) line(prompt string) string {
	if p.eof {
		return ""
	}
	fmt.Fprint(p.out, prompt)
	if !p.in.Scan() {
		p.eof = true
		return ""
	}
	return strings.TrimSpace(p.in.Text())
}

// number reads lines until one parses as an integer, or -1 at end of input.
func (p *prompter) number(prompt string) int {
	for !p.eof {
		if n, err := strconv.Atoi(p.line(prompt)); err == nil {
			return n
		}
	}
	return -1
}

// coordinate reads one board coordinate in [0, 9].
func (p *prompter) coordinate(axis string) uint8 {
	for !p.eof {
		n := p.number(axis + " = ")
		if n >= 0 && n <= 9 {
			return uint8(n)
		}
		fmt.Fprintf(p.out, "%d is out of bounds!\n", n)
	}
	return 0
}

// coordinates reads a full board point.
func (p *prompter) coordinates() model.Point {
	return model.Point{X: p.coordinate("x"), Y: p.coordinate("y")}
}

// orientation reads a ship orientation.
func (p *prompter) orientation() model.Orientation {
	for !p.eof {
		switch p.number("Enter orientation [0 = Horizontal, 1 = Vertical]: ") {
		case 0:
			return model.Horizontal
		case 1:
			return model.Vertical
		default:
			fmt.Fprintln(p.out, "not a valid orientation specifier")
		}
	}
	return model.Horizontal
}
