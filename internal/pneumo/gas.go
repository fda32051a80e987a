package pneumo

// Gas constants for dry air and the reference state used by the flow model.
const (
	GasConstant = 287.05   // J/(kg·K)
	Gamma       = 1.4      // adiabatic index
	AmbientP    = 101325.0 // Pa
	AmbientT    = 293.15   // K

	ambientRho = AmbientP / (GasConstant * AmbientT)

	// CriticalRatio is the downstream/upstream pressure ratio below which
	// orifice flow is choked (sonic), per ISO 6358 for air.
	CriticalRatio = 0.528
)

// ThermoMode selects the pressure-update law for chamber gas. It is global
// to the gas network and must only change between simulation steps.
type ThermoMode int

const (
	Isothermal ThermoMode = iota
	Adiabatic
)

func (m ThermoMode) String() string {
	if m == Adiabatic {
		return "adiabatic"
	}
	return "isothermal"
}

// ParseThermoMode maps a config string to a mode; unknown values default to
// isothermal.
func ParseThermoMode(s string) ThermoMode {
	if s == "adiabatic" {
		return Adiabatic
	}
	return Isothermal
}
