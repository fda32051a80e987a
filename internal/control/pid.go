// Package control implements closed-loop ride-height regulation. The leveler
// is a snapshot consumer like any other: it polls the channel on its own
// cadence and commands valves between ticks, so the simulation loop never
// waits for it.
package control

// PID is a scalar proportional-integral-derivative regulator.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64

	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{Kp: kp, Ki: ki, Kd: kd, Target: target, first: true}
}

// Update returns the control effort for a measurement taken at time t.
// The first sample yields a pure proportional response since no history
// exists to differentiate against.
func (p *PID) Update(measured, t float64) float64 {
	err := p.Target - measured

	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return p.Kp * err
	}

	dt := t - p.prevT
	if dt <= 0 {
		return p.Kp * err
	}

	p.integral += err * dt
	derivative := (err - p.prevErr) / dt
	p.prevErr = err
	p.prevT = t

	return p.Kp*err + p.Ki*p.integral + p.Kd*derivative
}

// Reset clears the accumulated history.
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}
