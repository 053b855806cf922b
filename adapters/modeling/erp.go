package modeling

import (
	"fmt"

	"neurosync/domain/signal"
)

// Polarity selects the deflection direction of an ERP component.
type Polarity int

const (
	PositivePeak Polarity = 1  // e.g. P300
	NegativePeak Polarity = -1 // e.g. N200
)

// ERPPeak is a detected event-related-potential peak within a search
// window.
type ERPPeak struct {
	AmplitudeUv float64 `json:"amplitude_uv"`
	LatencyMs   float64 `json:"latency_ms"`
	SampleIndex int     `json:"sample_index"`
}

// DetectERPPeak finds the largest deflection of the requested polarity in
// the trial-averaged waveform inside the millisecond search window. The
// window mapping follows the same ceil/floor contract as the estimator.
func DetectERPPeak(waveform []float64, sampleRate float64, window signal.Window, polarity Polarity) (ERPPeak, error) {
	if polarity != PositivePeak && polarity != NegativePeak {
		return ERPPeak{}, fmt.Errorf("polarity must be +1 or -1, got %d", polarity)
	}
	start, end, ok := window.SampleRange(sampleRate, len(waveform))
	if !ok {
		return ERPPeak{}, fmt.Errorf("search window [%.1f, %.1f] ms maps to no samples", window.StartMs, window.EndMs)
	}

	best := start
	for s := start + 1; s < end; s++ {
		if float64(polarity)*waveform[s] > float64(polarity)*waveform[best] {
			best = s
		}
	}

	return ERPPeak{
		AmplitudeUv: waveform[best],
		LatencyMs:   float64(best) / sampleRate * 1000,
		SampleIndex: best,
	}, nil
}

// GrandAverage averages trial waveforms sample-wise, the usual input to
// peak detection.
func GrandAverage(trials [][]float64) ([]float64, error) {
	if len(trials) == 0 {
		return nil, fmt.Errorf("grand average requires at least one trial")
	}
	n := len(trials[0])
	avg := make([]float64, n)
	for _, trial := range trials {
		if len(trial) != n {
			return nil, fmt.Errorf("trial length mismatch: %d vs %d", len(trial), n)
		}
		for s, v := range trial {
			avg[s] += v
		}
	}
	for s := range avg {
		avg[s] /= float64(len(trials))
	}
	return avg, nil
}
