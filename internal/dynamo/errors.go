package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrNotConverged indicates the implicit stepper failed to produce an
	// acceptable solution for the requested interval.
	ErrNotConverged = errors.New("dynamo: stepper did not converge")

	// ErrStepTooSmall indicates adaptive substepping shrank below its floor.
	ErrStepTooSmall = errors.New("dynamo: adaptive substep below minimum")

	// ErrParameterBounds indicates a parameter value outside its valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// Severity classifies a fault for the worker's per-tick handling: recoverable
// faults are reported and the loop continues, fatal faults require a
// user-initiated reset.
type Severity int

const (
	Recoverable Severity = iota
	Fatal
)

func (s Severity) String() string {
	if s == Fatal {
		return "fatal"
	}
	return "recoverable"
}

// Fault wraps an error with the tick context needed to report it.
type Fault struct {
	Severity  Severity
	Step      uint64
	Time      float64
	Component string
	Err       error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s fault in %s at step %d (t=%.4f): %v",
		f.Severity, f.Component, f.Step, f.Time, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// NewRecoverable builds a fault the simulation loop may skip past.
func NewRecoverable(component string, step uint64, t float64, err error) *Fault {
	return &Fault{Severity: Recoverable, Step: step, Time: t, Component: component, Err: err}
}

// NewFatal builds a fault that should prompt a reset.
func NewFatal(component string, step uint64, t float64, err error) *Fault {
	return &Fault{Severity: Fatal, Step: step, Time: t, Component: component, Err: err}
}

// IsFatal reports whether err carries a fatal fault tag.
func IsFatal(err error) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Severity == Fatal
	}
	return false
}
