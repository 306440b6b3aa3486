package toolpath

import (
	"strconv"
	"strings"
)

// Kind classifies what a move is for.
type Kind uint8

const (
	// Raw lines are comments and directives emitted verbatim.
	Raw Kind = iota
	// Travel moves reposition the pen between strokes at pen-up height.
	Travel
	// Print moves draw, or plunge the pen onto the paper.
	Print
	// Service moves set up, park and re-home the machine.
	Service
)

func (k Kind) String() string {
	switch k {
	case Travel:
		return "travel"
	case Print:
		return "print"
	case Service:
		return "service"
	}
	return "raw"
}

// Axis is a bit set of the words present on a move.
type Axis uint8

const (
	AxisX Axis = 1 << iota
	AxisY
	AxisZ
	AxisF
)

// Instruction is one line of a program.
type Instruction struct {
	Kind Kind
	// Code is "G0" or "G1" for moves.
	Code       string
	X, Y, Z, F float64
	Axes       Axis
	// Text is the verbatim line of a Raw instruction.
	Text string
}

// Has reports whether all axes in a are set.
func (in Instruction) Has(a Axis) bool { return in.Axes&a == a }

// IsMove reports whether the instruction moves the machine.
func (in Instruction) IsMove() bool { return in.Kind != Raw }

// String formats the instruction as a G-code line.
func (in Instruction) String() string {
	if in.Kind == Raw {
		return in.Text
	}
	var b strings.Builder
	b.WriteString(in.Code)
	word := func(a Axis, letter byte, v float64) {
		if in.Has(a) {
			b.WriteByte(' ')
			b.WriteByte(letter)
			b.WriteString(formatNumber(v))
		}
	}
	word(AxisX, 'X', in.X)
	word(AxisY, 'Y', in.Y)
	word(AxisZ, 'Z', in.Z)
	word(AxisF, 'F', in.F)
	return b.String()
}

// Comment returns a raw "; text" line.
func Comment(text string) Instruction {
	if text == "" {
		return Instruction{}
	}
	return Instruction{Text: "; " + text}
}

// Directive returns a raw line such as "M400 U1".
func Directive(text string) Instruction {
	return Instruction{Text: text}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
