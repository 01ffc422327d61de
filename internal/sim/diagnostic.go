package sim

import (
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
)

// FormatDiagnostic renders the per-tick trace line y=<pos>;v=<vel>;pid=<out>;
func FormatDiagnostic(p PlantState) string {
	var b strings.Builder
	b.WriteString("y=")
	b.WriteString(formatFloat(p.Position))
	b.WriteString(";v=")
	b.WriteString(formatFloat(p.Velocity))
	b.WriteString(";pid=")
	b.WriteString(formatFloat(p.LastControlOutput))
	b.WriteString(";")
	return b.String()
}

// formatFloat prints the shortest decimal that round-trips. Magnitudes from
// 1e21 up and below 1e-6 switch to exponent form (1e+21, 1.5e-7).
func formatFloat(v float64) string {
	switch {
	case v == 0:
		return "0" // drops the sign of negative zero
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	abs := math.Abs(v)
	if abs < 1e21 && abs >= 1e-6 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}

// DiagnosticWriter is an Observer writing one trace line per tick. The first
// write error is kept and later ticks are dropped.
type DiagnosticWriter struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

func NewDiagnosticWriter(w io.Writer) *DiagnosticWriter {
	return &DiagnosticWriter{w: w}
}

func (d *DiagnosticWriter) OnTick(s Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return
	}
	_, d.err = io.WriteString(d.w, FormatDiagnostic(s.Plant)+"\n")
}

func (d *DiagnosticWriter) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}
