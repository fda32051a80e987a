package pneumo

import "math"

// conductancePerCv converts a valve's Cv rating to sonic conductance,
// m³/(s·Pa) per unit Cv at full opening.
const conductancePerCv = 1e-8

// MassFlow computes compressible mass flow (kg/s) through a variable-area
// valve, ISO 6358 style. pUp and pDown are absolute pressures (Pa), T the
// upstream temperature (K), opening the valve fraction in [0, 1].
//
// Below CriticalRatio the flow is choked and independent of downstream
// pressure; above it the subsonic ellipse law applies. The result is always
// non-negative; flow direction is the caller's responsibility.
func MassFlow(pUp, pDown, T, Cv, opening float64) float64 {
	if opening <= 0 || Cv <= 0 || pUp <= 0 || T <= 0 {
		return 0
	}
	if opening > 1 {
		opening = 1
	}
	if pDown < 0 {
		pDown = 0
	}
	if pDown >= pUp {
		return 0
	}

	// Sonic (choked) rate, scaled to the upstream state relative to the
	// ambient reference density and temperature.
	flow := Cv * conductancePerCv * opening * pUp * ambientRho * math.Sqrt(AmbientT/T)

	ratio := pDown / pUp
	if ratio > CriticalRatio {
		frac := (ratio - CriticalRatio) / (1 - CriticalRatio)
		flow *= math.Sqrt(1 - frac*frac)
	}
	return flow
}
