// Package config loads and saves rig configurations.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/barmaleii77-hub/pneumostab/internal/pneumo"
	"github.com/barmaleii77-hub/pneumostab/internal/road"
	"github.com/barmaleii77-hub/pneumostab/internal/sim"
)

type Config struct {
	TickMicros int    `yaml:"tick_micros"`
	ThermoMode string `yaml:"thermo_mode"`
	Integrator string `yaml:"integrator"` // ros2, rk4, euler

	Lever      LeverConfig      `yaml:"lever"`
	Cylinder   CylinderConfig   `yaml:"cylinder"`
	Receiver   ReceiverConfig   `yaml:"receiver"`
	Valves     ValveConfig      `yaml:"valves"`
	Suspension SuspensionConfig `yaml:"suspension"`
	Road       RoadConfig       `yaml:"road"`
}

type LeverConfig struct {
	Arm          float64 `yaml:"arm"`
	Tail         float64 `yaml:"tail"`
	ClosedLength float64 `yaml:"closed_length"`
}

type CylinderConfig struct {
	Bore        float64 `yaml:"bore"`
	RodDiameter float64 `yaml:"rod_diameter"`
	Stroke      float64 `yaml:"stroke"`
	DeadVolume  float64 `yaml:"dead_volume"`
}

type ReceiverConfig struct {
	Volume   float64 `yaml:"volume"`
	Pressure float64 `yaml:"pressure"`
}

type ValveConfig struct {
	SupplyCv  float64 `yaml:"supply_cv"`
	ExhaustCv float64 `yaml:"exhaust_cv"`
	CrossCv   float64 `yaml:"cross_cv"`
}

type SuspensionConfig struct {
	SpringRate float64 `yaml:"spring_rate"`
	Damping    float64 `yaml:"damping"`
	Inertia    float64 `yaml:"inertia"`
	TireRate   float64 `yaml:"tire_rate"`
	WheelArm   float64 `yaml:"wheel_arm"`
}

type RoadConfig struct {
	Profile   string  `yaml:"profile"` // flat, sine, sweep, bump
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
	StartHz   float64 `yaml:"start_hz"`
	EndHz     float64 `yaml:"end_hz"`
	Duration  float64 `yaml:"duration"`
	RearDelay float64 `yaml:"rear_delay"`
}

func DefaultConfig() *Config {
	return &Config{
		TickMicros: 1000,
		ThermoMode: "isothermal",
		Integrator: "ros2",
		Lever:      LeverConfig{Arm: 0.4, Tail: 0.35, ClosedLength: 0.5},
		Cylinder:   CylinderConfig{Bore: 0.08, RodDiameter: 0.032, Stroke: 0.3, DeadVolume: 5e-6},
		Receiver:   ReceiverConfig{Volume: 0.02, Pressure: 8e5},
		Valves:     ValveConfig{SupplyCv: 0.5, ExhaustCv: 0.5, CrossCv: 0.3},
		Suspension: SuspensionConfig{
			SpringRate: 5000,
			Damping:    200,
			Inertia:    2.0,
			TireRate:   200000,
			WheelArm:   0.6,
		},
		Road: RoadConfig{Profile: "flat", Amplitude: 0.02, Frequency: 1.5, RearDelay: 0.25},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RoadSource builds the excitation source the profile names.
func (c *Config) RoadSource() (road.Source, error) {
	switch c.Road.Profile {
	case "", "flat":
		return road.Flat{}, nil
	case "sine":
		return road.Sine{
			Amplitude: c.Road.Amplitude,
			Frequency: c.Road.Frequency,
			RearDelay: c.Road.RearDelay,
		}, nil
	case "sweep":
		return road.Sweep{
			Amplitude: c.Road.Amplitude,
			StartHz:   c.Road.StartHz,
			EndHz:     c.Road.EndHz,
			Duration:  c.Road.Duration,
			RearDelay: c.Road.RearDelay,
		}, nil
	case "bump":
		return road.Bump{
			Height:    c.Road.Amplitude,
			Start:     1.0,
			Length:    c.Road.Duration,
			RearDelay: c.Road.RearDelay,
		}, nil
	default:
		return nil, fmt.Errorf("config: unknown road profile %q", c.Road.Profile)
	}
}

// SimParams translates the configuration into worker parameters.
func (c *Config) SimParams() (sim.Params, error) {
	src, err := c.RoadSource()
	if err != nil {
		return sim.Params{}, err
	}
	return sim.Params{
		Tick:             time.Duration(c.TickMicros) * time.Microsecond,
		Mode:             pneumo.ParseThermoMode(c.ThermoMode),
		Integrator:       c.Integrator,
		LeverArm:         c.Lever.Arm,
		LeverTail:        c.Lever.Tail,
		ClosedLength:     c.Lever.ClosedLength,
		Bore:             c.Cylinder.Bore,
		RodDiameter:      c.Cylinder.RodDiameter,
		Stroke:           c.Cylinder.Stroke,
		DeadVolume:       c.Cylinder.DeadVolume,
		ReceiverVolume:   c.Receiver.Volume,
		ReceiverPressure: c.Receiver.Pressure,
		Valves: pneumo.NetworkParams{
			SupplyCv:  c.Valves.SupplyCv,
			ExhaustCv: c.Valves.ExhaustCv,
			CrossCv:   c.Valves.CrossCv,
		},
		Suspension: sim.Suspension{
			SpringRate: c.Suspension.SpringRate,
			Damping:    c.Suspension.Damping,
			Inertia:    c.Suspension.Inertia,
			TireRate:   c.Suspension.TireRate,
			WheelArm:   c.Suspension.WheelArm,
		},
		Road: src,
	}, nil
}
