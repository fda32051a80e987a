// Package road provides the excitation query contract for the rig and a few
// built-in waveform sources. The worker samples a Source once per tick; the
// source itself holds no simulation state.
package road

import (
	"math"

	"github.com/barmaleii77-hub/pneumostab/internal/rig"
)

// Source answers "how high is the road under each wheel at time t". Values
// are elevations in meters.
type Source interface {
	Elevation(t float64) rig.Heights
}

// Flat is the neutral source: zero elevation everywhere.
type Flat struct{}

func (Flat) Elevation(t float64) rig.Heights { return rig.Heights{} }

// Sine excites all four corners with a sine wave; the rear axle lags by
// RearDelay seconds (wheelbase over vehicle speed) and the right side can be
// phase-shifted to induce roll.
type Sine struct {
	Amplitude  float64 // m
	Frequency  float64 // Hz
	RearDelay  float64 // s
	RightPhase float64 // rad
}

func (s Sine) Elevation(t float64) rig.Heights {
	var h rig.Heights
	w := 2 * math.Pi * s.Frequency
	for _, c := range rig.Corners() {
		tc := t
		if !c.Front() {
			tc -= s.RearDelay
		}
		phase := 0.0
		if c == rig.FrontRight || c == rig.RearRight {
			phase = s.RightPhase
		}
		h[c] = s.Amplitude * math.Sin(w*tc+phase)
	}
	return h
}

// Sweep is a linear chirp from StartHz to EndHz over Duration, useful for
// probing the rig's frequency response.
type Sweep struct {
	Amplitude float64 // m
	StartHz   float64
	EndHz     float64
	Duration  float64 // s
	RearDelay float64 // s
}

func (s Sweep) Elevation(t float64) rig.Heights {
	var h rig.Heights
	for _, c := range rig.Corners() {
		tc := t
		if !c.Front() {
			tc -= s.RearDelay
		}
		if tc < 0 {
			continue
		}
		frac := tc / s.Duration
		if frac > 1 {
			frac = 1
		}
		// Instantaneous phase of a linear chirp.
		f := s.StartHz + (s.EndHz-s.StartHz)*frac/2
		h[c] = s.Amplitude * math.Sin(2*math.Pi*f*tc)
	}
	return h
}

// Bump is a single half-sine obstacle hit first by the front axle.
type Bump struct {
	Height    float64 // m
	Start     float64 // s, when the front axle reaches the bump
	Length    float64 // s, time a wheel spends on the bump
	RearDelay float64 // s
}

func (b Bump) Elevation(t float64) rig.Heights {
	var h rig.Heights
	for _, c := range rig.Corners() {
		tc := t - b.Start
		if !c.Front() {
			tc -= b.RearDelay
		}
		if tc < 0 || tc > b.Length || b.Length <= 0 {
			continue
		}
		h[c] = b.Height * math.Sin(math.Pi*tc/b.Length)
	}
	return h
}
