// Package kinematics maps lever angle to piston stroke for one suspension
// corner. The lever pivot, the cylinder tail hinge, and the rod attachment
// form a triangle; the pin-to-pin distance across it determines how far the
// piston has travelled.
package kinematics

import (
	"errors"
	"fmt"
	"math"
)

// JacobianStep is the central-difference step (rad) used by PistonVelocity.
// It balances truncation error against floating-point cancellation and is
// exported so tests can probe its dependence on geometry scale.
const JacobianStep = 1e-6

// maxInteriorAngle bounds the usable pivot interior angle; beyond it the
// triangle collapses toward a straight line and the solve degenerates.
const maxInteriorAngle = 5 * math.Pi / 6

var (
	ErrGeometry = errors.New("kinematics: lever geometry is degenerate")
)

// Lever holds the fixed geometry of one corner. All lengths in meters.
type Lever struct {
	arm  float64 // pivot to rod attachment
	tail float64 // pivot to cylinder tail hinge
	cyl  float64 // pin-to-pin length with the piston fully retracted

	phi0      float64 // interior angle at zero stroke
	strokeMax float64
}

// NewLever validates the geometry once; an infeasible triangle is a fatal
// construction error, the simulation must not start with it.
func NewLever(arm, tail, cylLength float64) (*Lever, error) {
	if arm <= 0 || tail <= 0 || cylLength <= 0 {
		return nil, fmt.Errorf("%w: lengths must be positive (arm=%g tail=%g cyl=%g)",
			ErrGeometry, arm, tail, cylLength)
	}
	if cylLength <= math.Abs(arm-tail) || cylLength >= arm+tail {
		return nil, fmt.Errorf("%w: retracted length %g violates triangle inequality with arm=%g tail=%g",
			ErrGeometry, cylLength, arm, tail)
	}

	l := &Lever{arm: arm, tail: tail, cyl: cylLength}
	l.phi0 = math.Acos((arm*arm + tail*tail - cylLength*cylLength) / (2 * arm * tail))
	if l.phi0 >= maxInteriorAngle {
		return nil, fmt.Errorf("%w: no travel left above the retracted pose", ErrGeometry)
	}
	l.strokeMax = l.distance(maxInteriorAngle-l.phi0) - cylLength
	return l, nil
}

// StrokeMax returns the stroke at the interior-angle travel limit.
func (l *Lever) StrokeMax() float64 { return l.strokeMax }

// distance is the law-of-cosines pin-to-pin length at lever angle theta,
// measured from the zero-stroke pose.
func (l *Lever) distance(theta float64) float64 {
	return math.Sqrt(l.arm*l.arm + l.tail*l.tail - 2*l.arm*l.tail*math.Cos(l.phi0+theta))
}

// AngleToStroke maps lever angle to piston stroke, clamped into
// [0, StrokeMax]. Out-of-range angles are clipped, never an error: the lever
// is driven by the integrator and transient overshoot is expected.
func (l *Lever) AngleToStroke(theta float64) float64 {
	s := l.distance(theta) - l.cyl
	if s < 0 {
		return 0
	}
	if s > l.strokeMax {
		return l.strokeMax
	}
	return s
}

// StrokeToAngle is the inverse triangle solve. A geometrically infeasible
// target has its implied cosine clamped into [-1, 1] before the arccos;
// callers must treat clamped results as degenerate.
func (l *Lever) StrokeToAngle(stroke float64) float64 {
	d := l.cyl + stroke
	cosPhi := (l.arm*l.arm + l.tail*l.tail - d*d) / (2 * l.arm * l.tail)
	if cosPhi > 1 {
		cosPhi = 1
	} else if cosPhi < -1 {
		cosPhi = -1
	}
	return math.Acos(cosPhi) - l.phi0
}

// PistonVelocity converts angular velocity to piston velocity through the
// numerically-differentiated kinematic Jacobian (central difference).
func (l *Lever) PistonVelocity(theta, omega float64) float64 {
	ds := (l.AngleToStroke(theta+JacobianStep) - l.AngleToStroke(theta-JacobianStep)) / (2 * JacobianStep)
	return ds * omega
}
