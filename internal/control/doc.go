// Package control provides the PID feedback controller driving the plant.
//
// The controller is a pure compute unit: it knows the reference and its gains,
// retains the error history between calls and nothing else. It never clamps its
// output; saturating physical quantities is the plant's job.
//
//   - [Step]: pure one-shot computation (params, state, measured, dt) → (output, state)
//   - [PID]: stateful wrapper holding [Params] and the retained [State]
//
// # Usage
//
//	pid := control.NewPID(control.Params{Reference: 300, Kp: 1})
//	u, err := pid.Compute(585, 0.05) // u == -285
//
// # Cold start
//
// A freshly reset controller seeds PreviousError and IntegralOfError with zero, so
// the first derivative term is error/dt rather than zero. This spike is part of the
// simulated dynamics.
//
// [PID] also exposes GetParams/SetParam for live tuning.
package control
