package control

import (
	"fmt"
	"math"
)

const (
	DefaultReference = 300.0
	DefaultKp        = 1.0
	DefaultKi        = 0.0
	DefaultKd        = 0.0
)

// Params is one controller configuration. It is replaced wholesale, never patched
// field by field while a computation is in progress.
type Params struct {
	Reference float64
	Kp        float64
	Ki        float64
	Kd        float64
}

func DefaultParams() Params {
	return Params{
		Reference: DefaultReference,
		Kp:        DefaultKp,
		Ki:        DefaultKi,
		Kd:        DefaultKd,
	}
}

// State is the error history retained between computations.
type State struct {
	PreviousError   float64
	IntegralOfError float64
}

// Step computes one PID output for the measured value and returns the successor
// state. st is taken by value and left untouched; on error the returned state is st.
// An infinite output is allowed, the plant saturates it. NaN is not.
func Step(p Params, st State, measured, dt float64) (float64, State, error) {
	if err := checkTimestep(dt); err != nil {
		return 0, st, err
	}

	err := p.Reference - measured
	derivative := (err - st.PreviousError) / dt

	u := p.Kp*err + p.Ki*st.IntegralOfError + p.Kd*derivative
	if math.IsNaN(u) {
		return 0, st, fmt.Errorf("%w: kp=%v ki=%v kd=%v error=%v", ErrNonFiniteOutput, p.Kp, p.Ki, p.Kd, err)
	}

	st.IntegralOfError += err * dt
	st.PreviousError = err

	return u, st, nil
}

func checkTimestep(dt float64) error {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt <= 0 {
		return fmt.Errorf("%w, got %v", ErrInvalidTimestep, dt)
	}
	return nil
}

type PID struct {
	params Params
	state  *State // nil until the first computation after a reset
}

func NewPID(p Params) *PID {
	return &PID{params: p}
}

// Compute returns the control output for the measured value, dt seconds after the
// previous computation. An empty state is cold-started with zero seeds first.
func (c *PID) Compute(measured, dt float64) (float64, error) {
	var seed State
	if c.state != nil {
		seed = *c.state
	}

	u, next, err := Step(c.params, seed, measured, dt)
	if err != nil {
		return 0, err
	}

	c.state = &next
	return u, nil
}

// ResetState replaces the retained state. nil restores the empty marker, so the
// next Compute cold-starts.
func (c *PID) ResetState(initial *State) {
	if initial == nil {
		c.state = nil
		return
	}
	st := *initial
	c.state = &st
}

// State reports the retained state and whether one exists.
func (c *PID) State() (State, bool) {
	if c.state == nil {
		return State{}, false
	}
	return *c.state, true
}

func (c *PID) Params() Params { return c.params }

// SetParams swaps the gains and reference. Accumulated history is kept.
func (c *PID) SetParams(p Params) { c.params = p }

// GetParams returns tunable parameters for live adjustment
func (c *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Reference": c.params.Reference,
		"Kp":        c.params.Kp,
		"Ki":        c.params.Ki,
		"Kd":        c.params.Kd,
	}
}

// SetParam adjusts a single parameter by name.
func (c *PID) SetParam(name string, value float64) error {
	switch name {
	case "Reference":
		c.params.Reference = value
	case "Kp":
		c.params.Kp = value
	case "Ki":
		c.params.Ki = value
	case "Kd":
		c.params.Kd = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}
