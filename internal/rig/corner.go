// Package rig defines the shared identifiers of the four-corner suspension rig.
package rig

import "fmt"

// Corner is one of the four suspension positions.
type Corner int

const (
	FrontLeft Corner = iota
	FrontRight
	RearLeft
	RearRight

	NumCorners = 4
)

var cornerNames = [NumCorners]string{"front_left", "front_right", "rear_left", "rear_right"}

func (c Corner) String() string {
	if c < 0 || c >= NumCorners {
		return "unknown"
	}
	return cornerNames[c]
}

// MarshalText makes corners readable as JSON map keys.
func (c Corner) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Corner) UnmarshalText(text []byte) error {
	for i, name := range cornerNames {
		if name == string(text) {
			*c = Corner(i)
			return nil
		}
	}
	return fmt.Errorf("rig: unknown corner %q", text)
}

// Front reports whether the corner is on the front axle.
func (c Corner) Front() bool { return c == FrontLeft || c == FrontRight }

// Corners returns all four corners in fixed order. The order matches the
// mechanical state vector layout used by the simulation.
func Corners() [NumCorners]Corner {
	return [NumCorners]Corner{FrontLeft, FrontRight, RearLeft, RearRight}
}

// Heights holds one scalar per corner, indexed by Corner.
type Heights [NumCorners]float64
