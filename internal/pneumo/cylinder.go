package pneumo

import (
	"fmt"
	"math"
)

const (
	// volumeFloor guards the pressure laws against a collapsed chamber.
	// The piston position clamp should keep volumes well above this.
	volumeFloor = 1e-9 // m³

	// massFloor keeps chamber mass strictly positive; flows that would
	// drain a chamber past it are clamped, not allowed to go negative.
	massFloor = 1e-9 // kg

	// Piston position is confined to the interior of the stroke so the
	// piston never reaches a physical stop.
	positionFractionMin = 0.1
	positionFractionMax = 0.9
)

// Chamber is one side of a double-acting cylinder: a gas mass at a pressure
// in a position-dependent volume.
type Chamber struct {
	Mass     float64 // kg
	Pressure float64 // Pa

	// prevVolume is the volume captured at the end of the previous
	// ApplyMassFlow call; the adiabatic law needs the prior (p, V) pair.
	prevVolume float64
}

// Cylinder is the gas chamber pair for one corner. Geometry is fixed at
// construction; position moves every tick, mass and pressure only through
// ApplyMassFlow.
type Cylinder struct {
	bore       float64 // m
	rodDia     float64 // m
	stroke     float64 // m
	deadVolume float64 // m³ residual volume at each end

	headArea float64 // m²
	rodArea  float64 // m², annular (bore² − rod²)

	position float64 // m from head end
	temp     float64 // K, chamber gas temperature

	Head Chamber
	Rod  Chamber
}

// NewCylinder builds a cylinder pre-charged to ambient pressure with the
// piston at mid-stroke.
func NewCylinder(bore, rodDia, stroke, deadVolume float64) (*Cylinder, error) {
	if bore <= 0 || stroke <= 0 {
		return nil, fmt.Errorf("pneumo: bore and stroke must be positive (bore=%g stroke=%g)", bore, stroke)
	}
	if rodDia < 0 || rodDia >= bore {
		return nil, fmt.Errorf("pneumo: rod diameter %g must be in [0, bore)", rodDia)
	}
	if deadVolume < 0 {
		return nil, fmt.Errorf("pneumo: dead volume must be non-negative, got %g", deadVolume)
	}

	c := &Cylinder{
		bore:       bore,
		rodDia:     rodDia,
		stroke:     stroke,
		deadVolume: deadVolume,
		headArea:   math.Pi / 4 * bore * bore,
		rodArea:    math.Pi / 4 * (bore*bore - rodDia*rodDia),
		position:   stroke / 2,
		temp:       AmbientT,
	}
	c.Head = chamberAt(AmbientP, c.headVolumeAt(c.position), c.temp)
	c.Rod = chamberAt(AmbientP, c.rodVolumeAt(c.position), c.temp)
	return c, nil
}

func chamberAt(p, v, t float64) Chamber {
	return Chamber{
		Mass:       p * v / (GasConstant * t),
		Pressure:   p,
		prevVolume: v,
	}
}

func (c *Cylinder) headVolumeAt(x float64) float64 {
	return c.headArea*x + c.deadVolume
}

func (c *Cylinder) rodVolumeAt(x float64) float64 {
	return c.rodArea*(c.stroke-x) + c.deadVolume
}

// HeadVolume returns the head-chamber volume at the current piston position.
func (c *Cylinder) HeadVolume() float64 { return c.headVolumeAt(c.position) }

// RodVolume returns the rod-chamber volume at the current piston position.
func (c *Cylinder) RodVolume() float64 { return c.rodVolumeAt(c.position) }

// Position returns the piston position measured from the head end.
func (c *Cylinder) Position() float64 { return c.position }

// Stroke returns the cylinder stroke length.
func (c *Cylinder) Stroke() float64 { return c.stroke }

// SetPosition moves the piston, clamped to the stroke interior. The lever
// angle is not re-derived from the clamped value; only the chamber volumes
// see the clamp.
func (c *Cylinder) SetPosition(x float64) {
	lo := positionFractionMin * c.stroke
	hi := positionFractionMax * c.stroke
	if x < lo {
		x = lo
	} else if x > hi {
		x = hi
	}
	c.position = x
}

// ApplyMassFlow integrates the given mass flow rates (kg/s, signed) over dt
// and recomputes both chamber pressures under the selected law.
func (c *Cylinder) ApplyMassFlow(dmHead, dmRod, dt float64, mode ThermoMode) {
	c.Head.update(dmHead, dt, c.HeadVolume(), c.temp, mode)
	c.Rod.update(dmRod, dt, c.RodVolume(), c.temp, mode)
}

func (ch *Chamber) update(dm, dt, volume, temp float64, mode ThermoMode) {
	ch.Mass += dm * dt
	if ch.Mass < massFloor {
		ch.Mass = massFloor
	}

	if volume < volumeFloor {
		// Collapsed chamber: fall back to ambient rather than divide
		// by near-zero.
		ch.Pressure = AmbientP
		ch.prevVolume = volume
		return
	}

	switch mode {
	case Adiabatic:
		ch.Pressure = ch.Pressure * math.Pow(ch.prevVolume/volume, Gamma)
	default:
		ch.Pressure = ch.Mass * GasConstant * temp / volume
	}
	ch.prevVolume = volume
}

// Force returns the net piston force (N), positive toward the rod end:
// head pressure on the full bore minus rod pressure on the annulus.
func (c *Cylinder) Force() float64 {
	return c.Head.Pressure*c.headArea - c.Rod.Pressure*c.rodArea
}
