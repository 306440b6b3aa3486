package toolpath

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scribe/pkg/errors"
)

// Parse reads G-code. "G0" and "G1" lines become moves; everything else,
// comments included, is kept as raw text. Moves are classified as Travel
// (rapid moves at m.PenUp), Print (coordinated moves) or Service.
func Parse(r io.Reader, m Machine) ([]Instruction, error) {
	var out []Instruction
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	pos := m.Origin
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		fields := strings.Fields(stripComment(line))
		if len(fields) == 0 || (fields[0] != "G0" && fields[0] != "G1") {
			out = append(out, Directive(line))
			continue
		}

		in := Instruction{Code: fields[0]}
		for _, f := range fields[1:] {
			v, err := strconv.ParseFloat(f[1:], 64)
			if err != nil || len(f) < 2 {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "line %d: bad word %q", n, f)
			}
			switch f[0] {
			case 'X', 'x':
				in.X, in.Axes = v, in.Axes|AxisX
			case 'Y', 'y':
				in.Y, in.Axes = v, in.Axes|AxisY
			case 'Z', 'z':
				in.Z, in.Axes = v, in.Axes|AxisZ
			case 'F', 'f':
				in.F, in.Axes = v, in.Axes|AxisF
			default:
				return nil, errors.New(errors.ErrCodeInvalidInput, "line %d: unsupported word %q", n, f)
			}
		}
		if in.Has(AxisZ) {
			pos.Z = in.Z
		}
		in.Kind = classify(in, pos.Z, m)
		out = append(out, in)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read program")
	}
	return out, nil
}

func classify(in Instruction, z float64, m Machine) Kind {
	switch {
	case in.Code == "G1":
		return Print
	case z == m.PenUp:
		return Travel
	}
	return Service
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

// Replay re-estimates a parsed program for m. Existing progress markers are
// dropped and recomputed; homing directives move the tracked position like
// they do on the machine.
func Replay(lines []Instruction, m Machine, logger *log.Logger) *Program {
	e := NewEmitter(m, logger)
	for _, in := range lines {
		if in.Kind != Raw {
			e.Apply(in)
			continue
		}
		switch text := strings.TrimSpace(in.Text); {
		case strings.HasPrefix(text, "M73 "):
		case m.Homing != "" && text == m.Homing+" X0 Y0":
			e.home("X0 Y0")
		case m.Homing != "" && text == m.Homing+" Z0":
			e.home("Z0")
		case text == m.Pause:
			e.pageBreaks++
			e.lines = append(e.lines, in)
		default:
			e.lines = append(e.lines, in)
		}
	}
	return e.Finalize()
}
