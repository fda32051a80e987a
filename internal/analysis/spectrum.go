// Package analysis provides offline frequency analysis of recorded rig
// trajectories, used to locate suspension resonances after a sweep run.
package analysis

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform by radix-2 decimation. The
// input is truncated to the largest power-of-2 length.
func FFT(data []float64) []complex128 {
	n := 1
	for n*2 <= len(data) {
		n *= 2
	}
	return fft(data[:n])
}

func fft(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := fft(even)
	fodd := fft(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

// PowerSpectrum returns one-sided spectral magnitudes, bin k covering
// frequency k·rate/n.
func PowerSpectrum(data []float64) []float64 {
	f := FFT(data)
	ps := make([]float64, len(f)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(f[i])
	}
	return ps
}

// DominantFrequency finds the strongest non-DC spectral peak of a series
// sampled at rate Hz. It returns 0 when the series is too short to resolve
// anything.
func DominantFrequency(data []float64, rate float64) float64 {
	ps := PowerSpectrum(data)
	if len(ps) < 2 || rate <= 0 {
		return 0
	}
	peak, peakIdx := 0.0, 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > peak {
			peak, peakIdx = ps[i], i
		}
	}
	// Numerical residue in an all-DC spectrum is not a peak.
	if peakIdx == 0 || peak <= 1e-9*ps[0] {
		return 0
	}
	n := 2 * len(ps)
	return float64(peakIdx) * rate / float64(n)
}
