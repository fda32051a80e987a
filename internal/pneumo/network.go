package pneumo

import (
	"fmt"

	"github.com/barmaleii77-hub/pneumostab/internal/rig"
)

// GasNetwork owns the four cylinders, the shared receiver, and the valve
// topology connecting them. It is mutated only from the simulation goroutine.
type GasNetwork struct {
	cylinders [rig.NumCorners]*Cylinder
	receiver  *Receiver

	order []*line           // fixed iteration order
	lines map[LineID]*line

	mode ThermoMode
	temp float64
}

// NetworkParams fixes the per-line valve ratings.
type NetworkParams struct {
	SupplyCv  float64
	ExhaustCv float64
	CrossCv   float64
}

// NewGasNetwork wires the standard topology: a supply and an exhaust line per
// chamber per corner, plus one cross-connect line per axle per chamber kind.
func NewGasNetwork(cylinders [rig.NumCorners]*Cylinder, receiver *Receiver, p NetworkParams) (*GasNetwork, error) {
	for i, c := range cylinders {
		if c == nil {
			return nil, fmt.Errorf("pneumo: missing cylinder for corner %s", rig.Corner(i))
		}
	}
	if receiver == nil {
		return nil, fmt.Errorf("pneumo: missing receiver")
	}
	if p.SupplyCv <= 0 || p.ExhaustCv <= 0 || p.CrossCv <= 0 {
		return nil, fmt.Errorf("pneumo: valve Cv ratings must be positive")
	}

	n := &GasNetwork{
		cylinders: cylinders,
		receiver:  receiver,
		lines:     make(map[LineID]*line),
		temp:      AmbientT,
	}

	for _, corner := range rig.Corners() {
		for _, kind := range []ChamberKind{HeadChamber, RodChamber} {
			ch := port{kind: chamberPort, corner: corner, chamber: kind}
			n.addLine(SupplyLine(corner, kind), port{kind: receiverPort}, ch, p.SupplyCv)
			n.addLine(ExhaustLine(corner, kind), ch, port{kind: atmospherePort}, p.ExhaustCv)
		}
	}
	for _, front := range []bool{true, false} {
		left, right := rig.RearLeft, rig.RearRight
		if front {
			left, right = rig.FrontLeft, rig.FrontRight
		}
		for _, kind := range []ChamberKind{HeadChamber, RodChamber} {
			n.addLine(CrossLine(front, kind),
				port{kind: chamberPort, corner: left, chamber: kind},
				port{kind: chamberPort, corner: right, chamber: kind},
				p.CrossCv)
		}
	}
	return n, nil
}

func (n *GasNetwork) addLine(id LineID, a, b port, cv float64) {
	l := &line{id: id, a: a, b: b, cv: cv}
	n.lines[id] = l
	n.order = append(n.order, l)
}

// Lines returns every line ID in topology order.
func (n *GasNetwork) Lines() []LineID {
	ids := make([]LineID, len(n.order))
	for i, l := range n.order {
		ids[i] = l.id
	}
	return ids
}

// Mode returns the active thermodynamic law.
func (n *GasNetwork) Mode() ThermoMode { return n.mode }

// SetMode switches the pressure-update law. Only call between steps.
func (n *GasNetwork) SetMode(m ThermoMode) { n.mode = m }

// Cylinder returns the cylinder owned by the network for a corner.
func (n *GasNetwork) Cylinder(c rig.Corner) *Cylinder { return n.cylinders[c] }

// ReceiverPressure returns the tank pressure in Pa.
func (n *GasNetwork) ReceiverPressure() float64 { return n.receiver.Pressure }

// Pressure returns the chamber pressure (Pa) for a corner.
func (n *GasNetwork) Pressure(c rig.Corner, k ChamberKind) float64 {
	if k == RodChamber {
		return n.cylinders[c].Rod.Pressure
	}
	return n.cylinders[c].Head.Pressure
}

// Valve returns the current opening fraction for a line.
func (n *GasNetwork) Valve(id LineID) (float64, error) {
	l, ok := n.lines[id]
	if !ok {
		return 0, fmt.Errorf("pneumo: unknown valve line %q", id)
	}
	return l.opening, nil
}

// SetValve commands an opening fraction. Values outside [0, 1] are rejected
// before they can enter the state model.
func (n *GasNetwork) SetValve(id LineID, opening float64) error {
	l, ok := n.lines[id]
	if !ok {
		return fmt.Errorf("pneumo: unknown valve line %q", id)
	}
	if opening < 0 || opening > 1 {
		return fmt.Errorf("pneumo: opening %g for line %q outside [0, 1]", opening, id)
	}
	l.opening = opening
	return nil
}

// portPressure reads the pre-step pressure at a line end.
func (n *GasNetwork) portPressure(p port) float64 {
	switch p.kind {
	case receiverPort:
		return n.receiver.Pressure
	case atmospherePort:
		return AmbientP
	default:
		return n.Pressure(p.corner, p.chamber)
	}
}

// flowDeltas holds per-chamber signed mass flow rates (kg/s) for one step.
type flowDeltas struct {
	head     [rig.NumCorners]float64
	rod      [rig.NumCorners]float64
	receiver float64
}

func (d *flowDeltas) add(p port, rate float64) {
	switch p.kind {
	case receiverPort:
		d.receiver += rate
	case chamberPort:
		if p.chamber == RodChamber {
			d.rod[p.corner] += rate
		} else {
			d.head[p.corner] += rate
		}
	}
	// Atmosphere is an infinite reservoir; its share is dropped.
}

// computeFlows evaluates every line against the same pre-step pressure
// field. Each line is a bidirectional orifice: gas runs from the
// higher-pressure end to the lower.
func (n *GasNetwork) computeFlows() flowDeltas {
	var d flowDeltas
	for _, l := range n.order {
		if l.opening <= 0 {
			continue
		}
		pa := n.portPressure(l.a)
		pb := n.portPressure(l.b)
		src, dst := l.a, l.b
		if pb > pa {
			pa, pb = pb, pa
			src, dst = l.b, l.a
		}
		m := MassFlow(pa, pb, n.temp, l.cv, l.opening)
		if m == 0 {
			continue
		}
		d.add(src, -m)
		d.add(dst, +m)
	}
	return d
}

// ApplyFlows advances the gas state by dt. All flows are computed from a
// consistent pre-step pressure field and only then committed in a single
// pass, so no line sees another line's intra-step pressure change.
func (n *GasNetwork) ApplyFlows(dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("pneumo: dt must be positive, got %g", dt)
	}

	d := n.computeFlows()

	for i, c := range n.cylinders {
		c.ApplyMassFlow(d.head[i], d.rod[i], dt, n.mode)
	}
	n.receiver.ApplyMassFlow(d.receiver, dt)
	return nil
}

// TotalChamberMass sums gas mass across all chambers and the receiver.
func (n *GasNetwork) TotalChamberMass() float64 {
	total := n.receiver.Mass
	for _, c := range n.cylinders {
		total += c.Head.Mass + c.Rod.Mass
	}
	return total
}
