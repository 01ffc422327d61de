package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/pidlab/internal/sim"
)

// DefaultSteadyStateWindow is the number of trailing ticks averaged by
// SteadyStateError.
const DefaultSteadyStateWindow = 40

// IAE integrates the absolute tracking error over simulated time.
type IAE struct {
	name string
	sum  float64
}

func NewIAE() *IAE {
	return &IAE{name: "iae"}
}

func (m *IAE) Name() string { return m.name }

func (m *IAE) Observe(s sim.Snapshot) {
	m.sum += math.Abs(s.Error()) * s.Dt
}

func (m *IAE) Value() float64 { return m.sum }

func (m *IAE) Reset() { m.sum = 0 }

// Overshoot is the largest excursion past the reference, measured on the far
// side from where the object was at the first observed tick.
type Overshoot struct {
	name      string
	direction float64
	max       float64
}

func NewOvershoot() *Overshoot {
	return &Overshoot{name: "overshoot"}
}

func (m *Overshoot) Name() string { return m.name }

func (m *Overshoot) Observe(s sim.Snapshot) {
	e := s.Error()
	if m.direction == 0 {
		switch {
		case e > 0:
			m.direction = 1
		case e < 0:
			m.direction = -1
		}
		return
	}
	if past := -m.direction * e; past > m.max {
		m.max = past
	}
}

func (m *Overshoot) Value() float64 { return m.max }

func (m *Overshoot) Reset() {
	m.direction = 0
	m.max = 0
}

// SteadyStateError is the mean absolute error over the trailing window.
type SteadyStateError struct {
	name   string
	window []float64
	next   int
	full   bool
}

// NewSteadyStateError averages the last n ticks; n < 1 uses the default window.
func NewSteadyStateError(n int) *SteadyStateError {
	if n < 1 {
		n = DefaultSteadyStateWindow
	}
	return &SteadyStateError{
		name:   "steady_state_error",
		window: make([]float64, n),
	}
}

func (m *SteadyStateError) Name() string { return m.name }

func (m *SteadyStateError) Observe(s sim.Snapshot) {
	m.window[m.next] = math.Abs(s.Error())
	m.next++
	if m.next == len(m.window) {
		m.next = 0
		m.full = true
	}
}

func (m *SteadyStateError) Value() float64 {
	if m.full {
		return stat.Mean(m.window, nil)
	}
	if m.next == 0 {
		return 0
	}
	return stat.Mean(m.window[:m.next], nil)
}

func (m *SteadyStateError) Reset() {
	for i := range m.window {
		m.window[i] = 0
	}
	m.next = 0
	m.full = false
}
