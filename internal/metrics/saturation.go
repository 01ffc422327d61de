package metrics

import "github.com/san-kum/pidlab/internal/sim"

// Saturation is the fraction of ticks that ended with the velocity pinned at
// one of its bounds.
type Saturation struct {
	name      string
	saturated int
	samples   int
}

func NewSaturation() *Saturation {
	return &Saturation{name: "saturation"}
}

func (s *Saturation) Name() string { return s.name }

func (s *Saturation) Observe(snap sim.Snapshot) {
	s.samples++
	v := snap.Plant.Velocity
	if v >= snap.Bounds.VMax || v <= snap.Bounds.VMin {
		s.saturated++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.saturated) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.saturated = 0
	s.samples = 0
}
