package integrators

import (
	"fmt"
	"math"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
)

// Default error-control settings for the mechanical state integration.
const (
	DefaultRelTol  = 1e-6
	DefaultAbsTol  = 1e-9
	DefaultMaxStep = 10e-3 // s, bounds a single substep so fast transients are not skipped
	DefaultMinStep = 1e-12 // s, below this the step has effectively stalled

	stepSafety    = 0.9
	stepShrinkMin = 0.2
	stepGrowMax   = 5.0
)

// Stepper drives the Rosenbrock method across an interval with adaptive
// substeps, retaining (t, y) between calls. A failed interval leaves the
// retained state untouched so the caller can decide what to do with the tick.
type Stepper struct {
	method *Rosenbrock

	t float64
	y dynamo.State

	RelTol  float64
	AbsTol  float64
	MaxStep float64
	MinStep float64

	stats dynamo.Statistics
}

func NewStepper() *Stepper {
	return &Stepper{
		method:  NewRosenbrock(),
		RelTol:  DefaultRelTol,
		AbsTol:  DefaultAbsTol,
		MaxStep: DefaultMaxStep,
		MinStep: DefaultMinStep,
	}
}

// Reset seeds the retained state. It also clears the statistics.
func (s *Stepper) Reset(t0 float64, y0 dynamo.State) {
	s.t = t0
	s.y = y0.Clone()
	s.stats = dynamo.Statistics{}
}

// Current returns the retained time and a copy of the retained state.
func (s *Stepper) Current() (float64, dynamo.State) {
	return s.t, s.y.Clone()
}

// Stats returns accumulated substep counters.
func (s *Stepper) Stats() dynamo.Statistics {
	st := s.stats
	st.Evaluations = s.method.Evaluations()
	return st
}

// Step advances the retained state by exactly dt, taking as many adaptive
// substeps as error control demands. A divergent or non-converging solve is
// returned as an error and never silently accepted.
func (s *Stepper) Step(sys dynamo.System, dt float64) (dynamo.State, error) {
	if s.y == nil {
		return nil, fmt.Errorf("integrators: stepper not seeded, call Reset first")
	}
	if len(s.y) != sys.Dim() {
		return nil, dynamo.ErrDimensionMismatch
	}
	if dt <= 0 {
		return nil, fmt.Errorf("integrators: dt must be positive, got %g", dt)
	}

	t := s.t
	y := s.y.Clone()
	end := s.t + dt

	h := math.Min(dt, s.MaxStep)
	for t < end-1e-15 {
		if h > end-t {
			h = end - t
		}

		yNew, yLow, err := s.method.StepEmbedded(sys, y, t, h)
		if err != nil {
			return nil, err
		}

		errNorm := s.errorNorm(y, yNew, yLow)
		if errNorm <= 1 {
			t += h
			y = yNew
			s.stats.Steps++
			s.stats.LastStep = h
		} else {
			s.stats.Rejected++
		}

		// Standard PI-free step update for a 2nd-order pair.
		scale := stepSafety * math.Pow(math.Max(errNorm, 1e-10), -0.5)
		scale = math.Min(stepGrowMax, math.Max(stepShrinkMin, scale))
		h = math.Min(h*scale, s.MaxStep)

		if h < s.MinStep {
			return nil, dynamo.ErrStepTooSmall
		}
	}

	s.t = end
	s.y = y
	return y.Clone(), nil
}

// Integrate is a convenience wrapper: seed at (t0, y0) and advance to t1.
func (s *Stepper) Integrate(sys dynamo.System, y0 dynamo.State, t0, t1 float64) (dynamo.State, error) {
	s.Reset(t0, y0)
	return s.Step(sys, t1-t0)
}

// errorNorm is the RMS of the embedded error weighted by atol + rtol·|y|.
func (s *Stepper) errorNorm(y, yNew, yLow dynamo.State) float64 {
	sum := 0.0
	for i := range yNew {
		sc := s.AbsTol + s.RelTol*math.Max(math.Abs(y[i]), math.Abs(yNew[i]))
		e := (yNew[i] - yLow[i]) / sc
		sum += e * e
	}
	return math.Sqrt(sum / float64(len(yNew)))
}
