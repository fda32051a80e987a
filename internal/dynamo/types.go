package dynamo

import "math"

// State is a flat vector of system coordinates. The suspension rig packs the
// mechanical state as [θ_fl, θ_fr, θ_rl, θ_rr, ω_fl, ω_fr, ω_rl, ω_rr].
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is a first-order ODE system dx/dt = f(x, t).
type System interface {
	Derive(x State, t float64) State
	Dim() int
}

// Stepper advances an ODE system while retaining its own (t, y) state
// between calls.
type Stepper interface {
	Reset(t0 float64, y0 State)
	Step(sys System, dt float64) (State, error)
	Current() (t float64, y State)
	Stats() Statistics
}

// Statistics accumulates counters across Step calls.
type Statistics struct {
	Steps       uint64  // accepted substeps
	Rejected    uint64  // substeps rejected by error control
	Evaluations uint64  // right-hand-side evaluations
	LastStep    float64 // size of the last accepted substep
}
