package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/pidlab/internal/control"
)

// Simulator owns the plant state and the controller driving it.
type Simulator struct {
	cfg       Config
	bounds    Bounds
	pid       *control.PID
	load      float64
	plant     PlantState
	tick      int
	elapsed   float64
	metrics   []Metric
	observers []Observer
}

// New validates cfg and returns a reset simulator configured with the default
// controller parameters and cfg.Load.
func New(cfg Config) (*Simulator, error) {
	if cfg.Period <= 0 {
		return nil, fmt.Errorf("%w, got %v", ErrInvalidPeriod, cfg.Period)
	}
	b, err := cfg.Bounds()
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		cfg:       cfg,
		bounds:    b,
		pid:       control.NewPID(control.DefaultParams()),
		load:      cfg.Load,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
	s.Reset()
	return s, nil
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Configure replaces the controller parameters and the load. Neither the plant
// nor the controller history is reset.
func (s *Simulator) Configure(p control.Params, load float64) {
	s.pid.SetParams(p)
	s.load = load
}

// ResetPlant puts the object at rest at the bottom of its travel range.
func (s *Simulator) ResetPlant() {
	s.plant = PlantState{Position: s.bounds.YMax}
}

// Reset cold-starts the controller and resets the plant.
func (s *Simulator) Reset() {
	s.pid.ResetState(nil)
	s.ResetPlant()
	s.tick = 0
	s.elapsed = 0
}

// Tick advances the simulation by dt seconds. On error nothing changes.
func (s *Simulator) Tick(dt float64) (Snapshot, error) {
	u, err := s.pid.Compute(s.plant.Position, dt)
	if err != nil {
		return s.Snapshot(), &TickError{Tick: s.tick + 1, Time: s.elapsed, Wrapped: err}
	}

	s.plant = Advance(s.plant, u, s.load, s.bounds)
	s.tick++
	s.elapsed += dt

	snap := s.Snapshot()
	for _, m := range s.metrics {
		m.Observe(snap)
	}
	for _, o := range s.observers {
		o.OnTick(snap)
	}
	return snap, nil
}

// TickPeriod advances the simulation by one configured period.
func (s *Simulator) TickPeriod() (Snapshot, error) {
	return s.Tick(s.cfg.Dt())
}

// Run resets the simulator and ticks it headlessly. The returned result holds
// the initial snapshot followed by one snapshot per tick.
func (s *Simulator) Run(ctx context.Context, ticks int) (*Result, error) {
	if ticks <= 0 {
		return nil, fmt.Errorf("ticks must be positive, got %d", ticks)
	}

	s.Reset()
	for _, m := range s.metrics {
		m.Reset()
	}

	result := &Result{
		Snapshots: make([]Snapshot, 0, ticks+1),
		Metrics:   make(map[string]float64),
	}
	result.Snapshots = append(result.Snapshots, s.Snapshot())

	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		snap, err := s.TickPeriod()
		if err != nil {
			return result, err
		}
		result.Snapshots = append(result.Snapshots, snap)
		result.TicksTaken++
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

func (s *Simulator) Snapshot() Snapshot {
	st, _ := s.pid.State()
	p := s.pid.Params()
	return Snapshot{
		Tick:       s.tick,
		Time:       s.elapsed,
		Dt:         s.cfg.Dt(),
		Reference:  p.Reference,
		Load:       s.load,
		Bounds:     s.bounds,
		Plant:      s.plant,
		Controller: st,
	}
}

// State returns a copy of the full mutable state.
func (s *Simulator) State() State {
	st := State{Plant: s.plant}
	if cs, ok := s.pid.State(); ok {
		st.Controller = &cs
	}
	return st
}

func (s *Simulator) Config() Config         { return s.cfg }
func (s *Simulator) Bounds() Bounds         { return s.bounds }
func (s *Simulator) Params() control.Params { return s.pid.Params() }
func (s *Simulator) Load() float64          { return s.load }

// Controller exposes the live-tunable controller.
func (s *Simulator) Controller() *control.PID { return s.pid }
