// Package dynamo provides core numerical primitives for the suspension rig
// simulation:
//
//   - [State]: flat vector of mechanical coordinates
//   - [System]: interface for ODE systems (dx/dt = f(x, t))
//   - [Stepper]: stateful numerical integrator interface
//   - [Fault]: tagged error distinguishing recoverable from fatal conditions
//
// # Thread Safety
//
// State vectors and Steppers are NOT thread-safe; they are owned by the
// simulation worker goroutine and never shared.
package dynamo
