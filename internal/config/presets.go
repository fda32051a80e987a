package config

// Presets are named rig scenarios selectable from the CLI.
var Presets = map[string]*Config{
	"default": DefaultConfig(),

	"soft": {
		TickMicros: 1000,
		ThermoMode: "isothermal",
		Integrator: "ros2",
		Lever:      LeverConfig{Arm: 0.4, Tail: 0.35, ClosedLength: 0.5},
		Cylinder:   CylinderConfig{Bore: 0.08, RodDiameter: 0.032, Stroke: 0.3, DeadVolume: 5e-6},
		Receiver:   ReceiverConfig{Volume: 0.02, Pressure: 5e5},
		Valves:     ValveConfig{SupplyCv: 0.3, ExhaustCv: 0.3, CrossCv: 0.5},
		Suspension: SuspensionConfig{SpringRate: 2500, Damping: 350, Inertia: 2.0, TireRate: 180000, WheelArm: 0.6},
		Road:       RoadConfig{Profile: "sine", Amplitude: 0.015, Frequency: 1.0, RearDelay: 0.25},
	},

	"stiff": {
		TickMicros: 1000,
		ThermoMode: "adiabatic",
		Integrator: "ros2",
		Lever:      LeverConfig{Arm: 0.4, Tail: 0.35, ClosedLength: 0.5},
		Cylinder:   CylinderConfig{Bore: 0.08, RodDiameter: 0.032, Stroke: 0.3, DeadVolume: 5e-6},
		Receiver:   ReceiverConfig{Volume: 0.02, Pressure: 1.0e6},
		Valves:     ValveConfig{SupplyCv: 0.8, ExhaustCv: 0.8, CrossCv: 0.2},
		Suspension: SuspensionConfig{SpringRate: 9000, Damping: 150, Inertia: 2.0, TireRate: 250000, WheelArm: 0.6},
		Road:       RoadConfig{Profile: "sine", Amplitude: 0.02, Frequency: 2.5, RearDelay: 0.2},
	},

	"highpressure": {
		TickMicros: 1000,
		ThermoMode: "adiabatic",
		Integrator: "ros2",
		Lever:      LeverConfig{Arm: 0.4, Tail: 0.35, ClosedLength: 0.5},
		Cylinder:   CylinderConfig{Bore: 0.063, RodDiameter: 0.025, Stroke: 0.25, DeadVolume: 4e-6},
		Receiver:   ReceiverConfig{Volume: 0.015, Pressure: 1.6e6},
		Valves:     ValveConfig{SupplyCv: 0.6, ExhaustCv: 0.4, CrossCv: 0.3},
		Suspension: SuspensionConfig{SpringRate: 6000, Damping: 250, Inertia: 1.6, TireRate: 220000, WheelArm: 0.55},
		Road:       RoadConfig{Profile: "bump", Amplitude: 0.05, Duration: 0.4, RearDelay: 0.3},
	},

	"sweep": {
		TickMicros: 1000,
		ThermoMode: "isothermal",
		Integrator: "ros2",
		Lever:      LeverConfig{Arm: 0.4, Tail: 0.35, ClosedLength: 0.5},
		Cylinder:   CylinderConfig{Bore: 0.08, RodDiameter: 0.032, Stroke: 0.3, DeadVolume: 5e-6},
		Receiver:   ReceiverConfig{Volume: 0.02, Pressure: 8e5},
		Valves:     ValveConfig{SupplyCv: 0.5, ExhaustCv: 0.5, CrossCv: 0.3},
		Suspension: SuspensionConfig{SpringRate: 5000, Damping: 200, Inertia: 2.0, TireRate: 200000, WheelArm: 0.6},
		Road:       RoadConfig{Profile: "sweep", Amplitude: 0.01, StartHz: 0.5, EndHz: 15, Duration: 30, RearDelay: 0.25},
	},
}
