package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/pidlab/internal/control"
)

const (
	DefaultPeriod       = 50 * time.Millisecond
	DefaultCanvasHeight = 600.0
	DefaultObjectHeight = 30.0
	DefaultVMax         = 20.0
)

// Bounds are the closed saturation intervals for position and velocity.
type Bounds struct {
	YMin, YMax float64
	VMin, VMax float64
}

func (b Bounds) Validate() error {
	if b.YMin > b.YMax {
		return fmt.Errorf("%w: position [%v, %v]", ErrMisconfiguredBounds, b.YMin, b.YMax)
	}
	if b.VMin > b.VMax {
		return fmt.Errorf("%w: velocity [%v, %v]", ErrMisconfiguredBounds, b.VMin, b.VMax)
	}
	return nil
}

// Config is read-only for the lifetime of a simulator.
type Config struct {
	Period       time.Duration
	Load         float64
	CanvasHeight float64
	ObjectHeight float64
	VMax         float64
}

func DefaultConfig() Config {
	return Config{
		Period:       DefaultPeriod,
		CanvasHeight: DefaultCanvasHeight,
		ObjectHeight: DefaultObjectHeight,
		VMax:         DefaultVMax,
	}
}

// Dt is the tick period in seconds.
func (c Config) Dt() float64 { return c.Period.Seconds() }

// Bounds derives the travel range from the canvas and object size; the object
// never leaves the canvas.
func (c Config) Bounds() (Bounds, error) {
	half := c.ObjectHeight / 2
	b := Bounds{
		YMin: half,
		YMax: c.CanvasHeight - half,
		VMin: -c.VMax,
		VMax: c.VMax,
	}
	if err := b.Validate(); err != nil {
		return Bounds{}, err
	}
	return b, nil
}

func (c Config) Validate() error {
	if c.Period <= 0 {
		return fmt.Errorf("%w, got %v", ErrInvalidPeriod, c.Period)
	}
	_, err := c.Bounds()
	return err
}

type PlantState struct {
	Position          float64
	Velocity          float64
	LastControlOutput float64 // observational only
}

// State is the complete mutable simulation state. A nil Controller is a
// controller awaiting cold start.
type State struct {
	Plant      PlantState
	Controller *control.State
}

func (s State) Clone() State {
	c := State{Plant: s.Plant}
	if s.Controller != nil {
		st := *s.Controller
		c.Controller = &st
	}
	return c
}

// Snapshot is the value handed to observers and renderers after a tick.
type Snapshot struct {
	Tick       int
	Time       float64
	Dt         float64
	Reference  float64
	Load       float64
	Bounds     Bounds
	Plant      PlantState
	Controller control.State
}

// Error is the signed tracking error at the snapshot.
func (s Snapshot) Error() float64 { return s.Reference - s.Plant.Position }

type Observer interface {
	OnTick(s Snapshot)
}

type ObserverFunc func(s Snapshot)

func (f ObserverFunc) OnTick(s Snapshot) { f(s) }

type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}

type Result struct {
	Snapshots  []Snapshot
	Metrics    map[string]float64
	TicksTaken int
}
