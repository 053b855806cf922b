// Package dsp provides the signal-processing primitives behind the
// phase-locking estimator: FIR band-pass design, zero-phase filtering and
// analytic-signal phase extraction.
package dsp

import (
	"math"
)

// DesignBandPass builds a Hamming windowed-sinc band-pass filter with
// 2*order+1 taps. Frequencies are in Hz. The taps are normalized to unity
// gain at the band center. Callers validate the band against Nyquist
// before designing; an order of 0 yields a single unity tap (no
// filtering).
func DesignBandPass(lowHz, highHz, sampleRate float64, order int) []float64 {
	m := 2 * order // filter length is m+1, group delay is order samples
	taps := make([]float64, m+1)

	// Normalized cutoffs, cycles per sample
	fl := lowHz / sampleRate
	fh := highHz / sampleRate

	for i := 0; i <= m; i++ {
		n := float64(i - order)
		// Difference of two lowpass sincs gives the band-pass response
		var v float64
		if i == order {
			v = 2 * (fh - fl)
		} else {
			v = (math.Sin(2*math.Pi*fh*n) - math.Sin(2*math.Pi*fl*n)) / (math.Pi * n)
		}
		taps[i] = v * hamming(i, m)
	}

	// Normalize passband gain at the band center frequency
	fc := (fl + fh) / 2
	var gain float64
	for i := 0; i <= m; i++ {
		gain += taps[i] * math.Cos(2*math.Pi*fc*float64(i-order))
	}
	if gain != 0 {
		for i := range taps {
			taps[i] /= gain
		}
	}
	return taps
}

// hamming evaluates the Hamming window at position i of a length-(m+1)
// window: 0.54 - 0.46*cos(2*pi*i/m).
func hamming(i, m int) float64 {
	if m == 0 {
		return 1
	}
	return 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(m))
}

// filter applies the taps as a causal direct-form FIR, zero-padded at the
// left edge. The output has the same length as the input and lags it by
// the filter's group delay.
func filter(taps, x []float64) []float64 {
	y := make([]float64, len(x))
	for n := range x {
		var acc float64
		for k, t := range taps {
			if n-k < 0 {
				break
			}
			acc += t * x[n-k]
		}
		y[n] = acc
	}
	return y
}

// FiltFilt applies the taps forward and then backward, cancelling the
// group delay so the output has zero net phase shift relative to the
// input. A single causal pass would bias the extracted phase and must not
// be used upstream of phase estimation. Edge transients remain within
// `order` samples of each end and are the caller's responsibility to trim.
func FiltFilt(taps, x []float64) []float64 {
	y := filter(taps, x)
	reverse(y)
	y = filter(taps, y)
	reverse(y)
	return y
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
