package dsp

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// AnalyticSignal computes the analytic signal of x via the FFT method:
// transform, zero the negative frequencies, double the positive ones,
// inverse transform. The FFT backend handles arbitrary lengths, so no
// power-of-two padding is needed (padding would smear phase at the
// edges).
func AnalyticSignal(x []float64) []complex128 {
	n := len(x)
	spectrum := fft.FFTReal(x)

	half := n / 2
	for i := 1; i < len(spectrum); i++ {
		switch {
		case n%2 == 0 && i == half:
			// Nyquist bin stays untouched for even lengths
		case i < half || (n%2 == 1 && i <= half):
			spectrum[i] *= 2
		default:
			spectrum[i] = 0
		}
	}

	return fft.IFFT(spectrum)
}

// InstantPhase extracts the instantaneous phase (radians) and amplitude
// envelope from an analytic signal. Samples with zero amplitude have
// undefined phase; the phase reported there is 0 and callers use the
// amplitude to detect the degenerate case.
func InstantPhase(analytic []complex128) (phase, amplitude []float64) {
	phase = make([]float64, len(analytic))
	amplitude = make([]float64, len(analytic))
	for i, v := range analytic {
		amplitude[i] = cmplx.Abs(v)
		if amplitude[i] > 0 {
			phase[i] = cmplx.Phase(v)
		}
	}
	return phase, amplitude
}
