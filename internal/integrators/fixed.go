package integrators

import (
	"fmt"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
)

// Method is one explicit integration step of size dt.
type Method interface {
	Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State

	// Cost is the number of right-hand-side evaluations per step.
	Cost() int
}

// Compile-time interface checks.
var (
	_ dynamo.Stepper = (*Stepper)(nil)
	_ dynamo.Stepper = (*FixedStepper)(nil)
	_ Method         = (*Euler)(nil)
	_ Method         = (*RK4)(nil)
)

// New builds the stepper a configuration names. The empty name selects the
// implicit default, which is the only choice that handles stiff valve
// transients at full tick size.
func New(name string) (dynamo.Stepper, error) {
	switch name {
	case "", "ros2", "rosenbrock":
		return NewStepper(), nil
	case "rk4":
		return NewFixedStepper(NewRK4(), DefaultMaxStep), nil
	case "euler":
		return NewFixedStepper(NewEuler(), DefaultMaxStep), nil
	default:
		return nil, fmt.Errorf("integrators: unknown method %q", name)
	}
}

// FixedStepper drives an explicit Method across an interval in fixed
// substeps of at most h, with the same retained-state contract as the
// adaptive Stepper: a failed interval leaves (t, y) untouched.
type FixedStepper struct {
	method Method
	h      float64

	t float64
	y dynamo.State

	stats dynamo.Statistics
}

func NewFixedStepper(m Method, h float64) *FixedStepper {
	if h <= 0 {
		h = DefaultMaxStep
	}
	return &FixedStepper{method: m, h: h}
}

// Reset seeds the retained state and clears the statistics.
func (s *FixedStepper) Reset(t0 float64, y0 dynamo.State) {
	s.t = t0
	s.y = y0.Clone()
	s.stats = dynamo.Statistics{}
}

func (s *FixedStepper) Current() (float64, dynamo.State) {
	return s.t, s.y.Clone()
}

func (s *FixedStepper) Stats() dynamo.Statistics {
	return s.stats
}

// Step advances the retained state by exactly dt.
func (s *FixedStepper) Step(sys dynamo.System, dt float64) (dynamo.State, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("integrators: dt must be positive, got %g", dt)
	}
	if len(s.y) != sys.Dim() {
		return nil, fmt.Errorf("%w: state %d, system %d",
			dynamo.ErrDimensionMismatch, len(s.y), sys.Dim())
	}

	t, y := s.t, s.y
	remaining := dt
	for remaining > 1e-14 {
		h := s.h
		if h > remaining {
			h = remaining
		}
		y = s.method.Step(sys, y, t, h)
		if !y.IsValid() {
			return nil, fmt.Errorf("%w at t=%.6f", dynamo.ErrInvalidState, t)
		}
		t += h
		remaining -= h
		s.stats.Steps++
		s.stats.Evaluations += uint64(s.method.Cost())
		s.stats.LastStep = h
	}

	s.t = s.t + dt
	s.y = y
	return y, nil
}
