package pneumo

import "fmt"

// Receiver is the shared accumulator tank feeding and draining all four
// cylinders. Its volume is fixed, so no boundary work is done on the gas and
// the ideal-gas law applies in both thermodynamic modes.
type Receiver struct {
	volume   float64 // m³
	temp     float64 // K
	Mass     float64 // kg
	Pressure float64 // Pa
}

// NewReceiver builds a tank pre-charged to the given pressure.
func NewReceiver(volume, pressure float64) (*Receiver, error) {
	if volume <= 0 {
		return nil, fmt.Errorf("pneumo: receiver volume must be positive, got %g", volume)
	}
	if pressure <= 0 {
		return nil, fmt.Errorf("pneumo: receiver charge pressure must be positive, got %g", pressure)
	}
	return &Receiver{
		volume:   volume,
		temp:     AmbientT,
		Mass:     pressure * volume / (GasConstant * AmbientT),
		Pressure: pressure,
	}, nil
}

// Volume returns the fixed tank volume.
func (r *Receiver) Volume() float64 { return r.volume }

// ApplyMassFlow integrates a signed mass flow rate over dt and recomputes
// the tank pressure.
func (r *Receiver) ApplyMassFlow(dm, dt float64) {
	r.Mass += dm * dt
	if r.Mass < massFloor {
		r.Mass = massFloor
	}
	r.Pressure = r.Mass * GasConstant * r.temp / r.volume
}
