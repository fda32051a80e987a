package integrators

import "github.com/barmaleii77-hub/pneumostab/internal/dynamo"

// Euler is the first-order explicit method. Only suitable for gentle
// parameter regimes; the default for the rig is the Rosenbrock stepper.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	dx := sys.Derive(x, t)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

func (e *Euler) Cost() int { return 1 }
