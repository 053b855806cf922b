package dsp

import (
	"math"
	"testing"
)

func sine(freq, rate float64, n int, phase float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2*math.Pi*freq*float64(i)/rate + phase)
	}
	return x
}

func TestDesignBandPass_UnityGainAtCenter(t *testing.T) {
	rate := 500.0
	taps := DesignBandPass(6, 10, rate, 50)

	if len(taps) != 101 {
		t.Fatalf("expected 101 taps for order 50, got %d", len(taps))
	}

	// Frequency response at the band center should be ~1
	fc := 8.0 / rate
	var re, im float64
	for i, tap := range taps {
		re += tap * math.Cos(2*math.Pi*fc*float64(i))
		im -= tap * math.Sin(2*math.Pi*fc*float64(i))
	}
	gain := math.Hypot(re, im)
	if math.Abs(gain-1) > 1e-9 {
		t.Errorf("gain at band center = %v, want 1", gain)
	}
}

func TestDesignBandPass_AttenuatesStopband(t *testing.T) {
	rate := 500.0
	taps := DesignBandPass(6, 10, rate, 50)

	for _, freq := range []float64{0.5, 40, 100} {
		f := freq / rate
		var re, im float64
		for i, tap := range taps {
			re += tap * math.Cos(2*math.Pi*f*float64(i))
			im -= tap * math.Sin(2*math.Pi*f*float64(i))
		}
		gain := math.Hypot(re, im)
		if gain > 0.2 {
			t.Errorf("gain at %g Hz = %v, want < 0.2", freq, gain)
		}
	}
}

func TestDesignBandPass_OrderZeroIsPassthrough(t *testing.T) {
	taps := DesignBandPass(6, 10, 500, 0)
	if len(taps) != 1 {
		t.Fatalf("expected single tap, got %d", len(taps))
	}
	if math.Abs(taps[0]-1) > 1e-12 {
		t.Errorf("order-0 tap = %v, want 1", taps[0])
	}
}

func TestFiltFilt_ZeroPhaseShift(t *testing.T) {
	rate := 500.0
	order := 50
	x := sine(8, rate, 1000, 0)

	taps := DesignBandPass(6, 10, rate, order)
	y := FiltFilt(taps, x)

	// Inside the trimmed region the in-band sine must come back with no
	// phase shift and near-unity amplitude. A single causal pass would
	// lag by `order` samples here.
	for i := 2 * order; i < len(x)-2*order; i++ {
		if math.Abs(y[i]-x[i]) > 0.02 {
			t.Fatalf("sample %d: filtered %v vs input %v", i, y[i], x[i])
		}
	}
}

func TestFiltFilt_RemovesOutOfBand(t *testing.T) {
	rate := 500.0
	order := 50
	n := 1000
	inBand := sine(8, rate, n, 0.3)
	noise := sine(60, rate, n, 1.1)

	mixed := make([]float64, n)
	for i := range mixed {
		mixed[i] = inBand[i] + noise[i]
	}

	taps := DesignBandPass(6, 10, rate, order)
	y := FiltFilt(taps, mixed)

	for i := 2 * order; i < n-2*order; i++ {
		if math.Abs(y[i]-inBand[i]) > 0.05 {
			t.Fatalf("sample %d: residual %v", i, math.Abs(y[i]-inBand[i]))
		}
	}
}

func TestAnalyticSignal_PhaseAdvancesAtSignalFrequency(t *testing.T) {
	rate := 500.0
	freq := 8.0
	x := sine(freq, rate, 1000, 0)

	phase, amplitude := InstantPhase(AnalyticSignal(x))

	expectedStep := 2 * math.Pi * freq / rate
	for i := 101; i < 900; i++ {
		step := phase[i] - phase[i-1]
		if step < -math.Pi {
			step += 2 * math.Pi
		}
		if math.Abs(step-expectedStep) > 0.01 {
			t.Fatalf("phase step at %d = %v, want %v", i, step, expectedStep)
		}
		if math.Abs(amplitude[i]-1) > 0.02 {
			t.Fatalf("amplitude at %d = %v, want 1", i, amplitude[i])
		}
	}
}

func TestAnalyticSignal_OddLength(t *testing.T) {
	x := sine(8, 500, 999, 0)
	analytic := AnalyticSignal(x)
	if len(analytic) != 999 {
		t.Fatalf("length mismatch: %d", len(analytic))
	}
	// Real part of the analytic signal reproduces the input
	for i, v := range analytic {
		if math.Abs(real(v)-x[i]) > 1e-6 {
			t.Fatalf("real part diverges at %d: %v vs %v", i, real(v), x[i])
		}
	}
}

func TestInstantPhase_ZeroAmplitude(t *testing.T) {
	phase, amplitude := InstantPhase(make([]complex128, 16))
	for i := range phase {
		if phase[i] != 0 || amplitude[i] != 0 {
			t.Fatalf("zero signal should yield zero phase and amplitude at %d", i)
		}
	}
}
