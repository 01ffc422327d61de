package sim

import "github.com/san-kum/pidlab/internal/control"

// Clamp limits v to [lo, hi]. Excess magnitude is discarded.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Advance integrates one control output plus the load into the plant, with unit
// mass and one tick as the time unit. Velocity saturates before position is
// updated.
func Advance(p PlantState, u, load float64, b Bounds) PlantState {
	p.LastControlOutput = u
	p.Velocity = Clamp(p.Velocity+u+load, b.VMin, b.VMax)
	p.Position = Clamp(p.Position+p.Velocity, b.YMin, b.YMax)
	return p
}

// Step is the pure tick transition. The controller is never told about
// saturation, so the integral keeps accumulating while the plant is pinned.
func Step(st State, p control.Params, load float64, b Bounds, dt float64) (State, error) {
	var seed control.State
	if st.Controller != nil {
		seed = *st.Controller
	}

	u, next, err := control.Step(p, seed, st.Plant.Position, dt)
	if err != nil {
		return st, err
	}

	return State{
		Plant:      Advance(st.Plant, u, load, b),
		Controller: &next,
	}, nil
}
