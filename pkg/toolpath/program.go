package toolpath

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// Program is a finished G-code program.
type Program struct {
	Lines []Instruction
	// Elapsed is the estimated run time in seconds.
	Elapsed float64
	// Minutes and Seconds split Elapsed for display.
	Minutes, Seconds int
	Checkpoints      []Checkpoint
	PageBreaks       int
}

// Duration returns the estimated run time.
func (p *Program) Duration() time.Duration {
	return time.Duration(p.Elapsed * float64(time.Second))
}

// Summary formats the estimate as "<m>m_<s>s".
func (p *Program) Summary() string {
	return fmt.Sprintf("%dm_%ds", p.Minutes, p.Seconds)
}

// Moves counts the instructions of kind k.
func (p *Program) Moves(k Kind) int {
	n := 0
	for _, in := range p.Lines {
		if in.Kind == k {
			n++
		}
	}
	return n
}

// WriteTo writes the program as newline-terminated text.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, in := range p.Lines {
		m, err := bw.WriteString(in.String())
		n += int64(m)
		if err != nil {
			return n, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return n, err
		}
		n++
	}
	return n, bw.Flush()
}

// String returns the program text.
func (p *Program) String() string {
	var b strings.Builder
	_, _ = p.WriteTo(&b)
	return b.String()
}

// Bytes returns the program text.
func (p *Program) Bytes() []byte {
	return []byte(p.String())
}
