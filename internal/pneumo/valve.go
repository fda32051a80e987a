package pneumo

import (
	"fmt"

	"github.com/barmaleii77-hub/pneumostab/internal/rig"
)

// ChamberKind selects one side of a double-acting cylinder.
type ChamberKind int

const (
	HeadChamber ChamberKind = iota
	RodChamber
)

func (k ChamberKind) String() string {
	if k == RodChamber {
		return "rod"
	}
	return "head"
}

// LineID names one valve line in the fixed network topology.
type LineID string

// SupplyLine names the receiver-to-chamber line for a corner chamber.
func SupplyLine(c rig.Corner, k ChamberKind) LineID {
	return LineID(fmt.Sprintf("supply/%s/%s", c, k))
}

// ExhaustLine names the chamber-to-atmosphere line for a corner chamber.
func ExhaustLine(c rig.Corner, k ChamberKind) LineID {
	return LineID(fmt.Sprintf("exhaust/%s/%s", c, k))
}

// CrossLine names the axle cross-connect line joining the left and right
// chambers of the given kind ("front" or "rear" axle).
func CrossLine(front bool, k ChamberKind) LineID {
	axle := "rear"
	if front {
		axle = "front"
	}
	return LineID(fmt.Sprintf("cross/%s/%s", axle, k))
}

type portKind int

const (
	receiverPort portKind = iota
	atmospherePort
	chamberPort
)

// port is one end of a valve line.
type port struct {
	kind    portKind
	corner  rig.Corner
	chamber ChamberKind
}

// line is a variable-area orifice between two ports. The opening is the only
// mutable field; everything else is fixed topology.
type line struct {
	id      LineID
	a, b    port
	cv      float64
	opening float64
}
