package modeling

import (
	"fmt"
	"math/rand"

	"github.com/montanaflynn/stats"
)

// CoefficientInterval is a two-sided 95% percentile-bootstrap interval
// for one fitted coefficient.
type CoefficientInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// BootstrapCoefficients resamples observation indices with replacement
// and refits, reporting empirical 2.5/97.5 percentiles per coefficient.
// The fit callback receives the resampled index set and returns the
// coefficient vector; resamples where the fit fails (e.g. a degenerate
// design) are skipped, but more than half failing aborts.
func BootstrapCoefficients(n, reps int, rng *rand.Rand, fit func(idx []int) ([]float64, error)) ([]CoefficientInterval, error) {
	if n < 2 {
		return nil, fmt.Errorf("bootstrap requires at least 2 observations, got %d", n)
	}
	if reps < 1 {
		return nil, fmt.Errorf("bootstrap requires at least 1 repetition, got %d", reps)
	}

	var samples [][]float64
	failed := 0
	idx := make([]int, n)
	for rep := 0; rep < reps; rep++ {
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		coefs, err := fit(idx)
		if err != nil {
			failed++
			continue
		}
		samples = append(samples, coefs)
	}
	if failed > reps/2 {
		return nil, fmt.Errorf("bootstrap aborted: %d of %d resamples failed to fit", failed, reps)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("bootstrap produced no successful fits")
	}

	p := len(samples[0])
	intervals := make([]CoefficientInterval, p)
	column := make([]float64, 0, len(samples))
	for j := 0; j < p; j++ {
		column = column[:0]
		for _, coefs := range samples {
			column = append(column, coefs[j])
		}
		lo, err := stats.Percentile(column, 2.5)
		if err != nil {
			return nil, fmt.Errorf("percentile failed: %w", err)
		}
		hi, err := stats.Percentile(column, 97.5)
		if err != nil {
			return nil, fmt.Errorf("percentile failed: %w", err)
		}
		intervals[j] = CoefficientInterval{Lower: lo, Upper: hi}
	}
	return intervals, nil
}
