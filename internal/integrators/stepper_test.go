package integrators

import (
	"math"
	"testing"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
)

// decay is dx/dt = -λx with the exact solution x0·exp(-λt).
type decay struct {
	lambda float64
}

func (d *decay) Derive(x dynamo.State, t float64) dynamo.State {
	dx := make(dynamo.State, len(x))
	for i := range x {
		dx[i] = -d.lambda * x[i]
	}
	return dx
}

func (d *decay) Dim() int { return 1 }

// oscillator is d²x/dt² = -ω²x as a first-order pair.
type oscillator struct {
	omega float64
}

func (o *oscillator) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -o.omega * o.omega * x[0]}
}

func (o *oscillator) Dim() int { return 2 }

func TestStepperExponentialDecay(t *testing.T) {
	s := NewStepper()
	got, err := s.Integrate(&decay{lambda: 1.0}, dynamo.State{1.0}, 0, 1.0)
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}

	want := math.Exp(-1.0)
	if math.Abs(got[0]-want) > 1e-4 {
		t.Errorf("decay: got %.8f want %.8f", got[0], want)
	}
}

func TestStepperStiffDecay(t *testing.T) {
	// λ = 1e4 with a 1 ms interval: an explicit method at this step size
	// (z = -10) diverges, the L-stable Rosenbrock must not.
	s := NewStepper()
	got, err := s.Integrate(&decay{lambda: 1e4}, dynamo.State{1.0}, 0, 10e-3)
	if err != nil {
		t.Fatalf("stiff integrate failed: %v", err)
	}

	if math.Abs(got[0]) > 1e-3 {
		t.Errorf("stiff decay should be fully damped, got %g", got[0])
	}
	if math.IsNaN(got[0]) || math.IsInf(got[0], 0) {
		t.Fatalf("stiff decay diverged: %g", got[0])
	}
}

func TestStepperOscillatorAccuracy(t *testing.T) {
	s := NewStepper()
	s.Reset(0, dynamo.State{1.0, 0.0})

	sys := &oscillator{omega: 2 * math.Pi}
	dt := 1e-3
	for i := 0; i < 1000; i++ {
		if _, err := s.Step(sys, dt); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
	}

	// One full period: back to the initial state.
	_, y := s.Current()
	if math.Abs(y[0]-1.0) > 5e-3 {
		t.Errorf("position after one period: got %.6f want 1.0", y[0])
	}
	if math.Abs(y[1]) > 5e-2 {
		t.Errorf("velocity after one period: got %.6f want 0", y[1])
	}
}

func TestStepperRetainsState(t *testing.T) {
	s := NewStepper()
	s.Reset(0, dynamo.State{1.0})
	sys := &decay{lambda: 1.0}

	if _, err := s.Step(sys, 0.5); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	tNow, _ := s.Current()
	if math.Abs(tNow-0.5) > 1e-12 {
		t.Errorf("retained time: got %g want 0.5", tNow)
	}

	if _, err := s.Step(sys, 0.5); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	_, y := s.Current()
	want := math.Exp(-1.0)
	if math.Abs(y[0]-want) > 1e-4 {
		t.Errorf("two half steps: got %.8f want %.8f", y[0], want)
	}
}

func TestStepperErrors(t *testing.T) {
	s := NewStepper()
	sys := &decay{lambda: 1.0}

	if _, err := s.Step(sys, 0.1); err == nil {
		t.Error("expected error for unseeded stepper")
	}

	s.Reset(0, dynamo.State{1.0, 2.0})
	if _, err := s.Step(sys, 0.1); err != dynamo.ErrDimensionMismatch {
		t.Errorf("expected dimension mismatch, got %v", err)
	}

	s.Reset(0, dynamo.State{1.0})
	if _, err := s.Step(sys, -0.1); err == nil {
		t.Error("expected error for negative dt")
	}
}

func TestStepperStats(t *testing.T) {
	s := NewStepper()
	if _, err := s.Integrate(&oscillator{omega: 10}, dynamo.State{1, 0}, 0, 1.0); err != nil {
		t.Fatalf("integrate failed: %v", err)
	}

	st := s.Stats()
	if st.Steps == 0 {
		t.Error("expected accepted substeps to be counted")
	}
	if st.Evaluations == 0 {
		t.Error("expected RHS evaluations to be counted")
	}
	if st.LastStep <= 0 || st.LastStep > DefaultMaxStep {
		t.Errorf("last step %g outside (0, maxStep]", st.LastStep)
	}
}

func TestStepperBoundsSubsteps(t *testing.T) {
	s := NewStepper()
	if _, err := s.Integrate(&decay{lambda: 0.01}, dynamo.State{1.0}, 0, 1.0); err != nil {
		t.Fatalf("integrate failed: %v", err)
	}

	// Even a trivially smooth system must not take substeps above MaxStep.
	if st := s.Stats(); st.LastStep > DefaultMaxStep {
		t.Errorf("substep %g exceeded max %g", st.LastStep, DefaultMaxStep)
	}
	if st := s.Stats(); st.Steps < uint64(1.0/DefaultMaxStep) {
		t.Errorf("expected at least %d substeps, got %d", int(1.0/DefaultMaxStep), st.Steps)
	}
}

func TestRK4MatchesExactSolution(t *testing.T) {
	r := NewRK4()
	sys := &decay{lambda: 1.0}

	x := dynamo.State{1.0}
	dt := 0.01
	for i := 0; i < 100; i++ {
		x = r.Step(sys, x, float64(i)*dt, dt)
	}

	want := math.Exp(-1.0)
	if math.Abs(x[0]-want) > 1e-8 {
		t.Errorf("rk4 decay: got %.10f want %.10f", x[0], want)
	}
}

func TestEulerFirstOrderConvergence(t *testing.T) {
	sys := &decay{lambda: 1.0}
	run := func(dt float64) float64 {
		e := NewEuler()
		x := dynamo.State{1.0}
		steps := int(1.0 / dt)
		for i := 0; i < steps; i++ {
			x = e.Step(sys, x, float64(i)*dt, dt)
		}
		return math.Abs(x[0] - math.Exp(-1.0))
	}

	coarse := run(0.01)
	fine := run(0.001)
	ratio := coarse / fine
	if ratio < 5 || ratio > 20 {
		t.Errorf("euler error should shrink ~linearly with dt, ratio %.2f", ratio)
	}
}
