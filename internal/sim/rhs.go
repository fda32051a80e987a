package sim

import (
	"fmt"
	"math"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
	"github.com/barmaleii77-hub/pneumostab/internal/kinematics"
	"github.com/barmaleii77-hub/pneumostab/internal/rig"
)

// stateDim is the mechanical state vector length:
// [θ_fl, θ_fr, θ_rl, θ_rr, ω_fl, ω_fr, ω_rl, ω_rr].
const stateDim = 2 * rig.NumCorners

// Suspension holds the passive mechanical coefficients, shared by all four
// corners.
type Suspension struct {
	SpringRate float64 // N·m/rad, linear torsion spring about the pivot
	Damping    float64 // N·m·s/rad, viscous
	Inertia    float64 // kg·m², lever + wheel about the pivot
	TireRate   float64 // N/m, vertical tire stiffness coupling road to lever
	WheelArm   float64 // m, pivot-to-wheel-contact radius
}

func (s Suspension) validate() error {
	if s.Inertia <= 0 {
		return fmt.Errorf("%w: inertia must be positive, got %g", dynamo.ErrParameterBounds, s.Inertia)
	}
	if s.SpringRate < 0 || s.Damping < 0 || s.TireRate < 0 || s.WheelArm <= 0 {
		return fmt.Errorf("%w: suspension coefficients out of range", dynamo.ErrParameterBounds)
	}
	return nil
}

// rigDynamics is the ODE right-hand side for the lever mechanics. Pneumatic
// forces and road heights are sampled once per tick and held constant across
// the integrator's substeps, keeping the tick's force field consistent with
// the gas network's compute-then-commit discipline.
type rigDynamics struct {
	levers [rig.NumCorners]*kinematics.Lever
	susp   Suspension

	// frozen per tick
	forces [rig.NumCorners]float64 // pneumatic piston force, N
	road   rig.Heights             // m
}

func (d *rigDynamics) Dim() int { return stateDim }

func (d *rigDynamics) Derive(x dynamo.State, t float64) dynamo.State {
	dx := make(dynamo.State, stateDim)

	for i := 0; i < rig.NumCorners; i++ {
		theta := x[i]
		omega := x[rig.NumCorners+i]

		// Pneumatic torque by virtual work: piston force times the
		// kinematic Jacobian dstroke/dθ.
		jac := d.levers[i].PistonVelocity(theta, 1.0)
		pneumatic := d.forces[i] * jac

		wheelLift := d.susp.WheelArm * math.Sin(theta)
		tire := d.susp.TireRate * (d.road[i] - wheelLift) * d.susp.WheelArm * math.Cos(theta)

		torque := pneumatic + tire - d.susp.SpringRate*theta - d.susp.Damping*omega

		dx[i] = omega
		dx[rig.NumCorners+i] = torque / d.susp.Inertia
	}
	return dx
}
