package analysis

import (
	"math"
	"testing"
)

func sine(freq, rate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / rate)
	}
	return out
}

func TestDominantFrequencyPureTone(t *testing.T) {
	const rate = 256.0
	data := sine(8, rate, 512)
	f := DominantFrequency(data, rate)
	if math.Abs(f-8) > rate/512 {
		t.Errorf("got %.3f Hz, want 8 Hz", f)
	}
}

func TestDominantFrequencyPicksStrongerTone(t *testing.T) {
	const rate = 256.0
	weak := sine(30, rate, 512)
	strong := sine(5, rate, 512)
	data := make([]float64, 512)
	for i := range data {
		data[i] = 0.2*weak[i] + strong[i]
	}
	f := DominantFrequency(data, rate)
	if math.Abs(f-5) > rate/512 {
		t.Errorf("got %.3f Hz, want 5 Hz", f)
	}
}

func TestDominantFrequencyDegenerate(t *testing.T) {
	if f := DominantFrequency(nil, 100); f != 0 {
		t.Errorf("nil series: got %.3f, want 0", f)
	}
	if f := DominantFrequency([]float64{1, 1, 1, 1}, 0); f != 0 {
		t.Errorf("zero rate: got %.3f, want 0", f)
	}
	// Constant series has only a DC component.
	flat := make([]float64, 64)
	for i := range flat {
		flat[i] = 3.5
	}
	if f := DominantFrequency(flat, 64); f != 0 {
		t.Errorf("constant series: got %.3f, want 0", f)
	}
}

func TestFFTTruncatesToPowerOfTwo(t *testing.T) {
	data := sine(4, 100, 300)
	if got := len(FFT(data)); got != 256 {
		t.Errorf("length %d, want 256", got)
	}
}
