package plv

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"neurosync/domain/signal"
)

// bootstrapInterval estimates two-sided 95% bounds for a pair's PLV
// series by resampling trials with replacement (same trial count as the
// original) and taking the empirical 2.5th and 97.5th percentiles per
// sample. Percentile bootstrap, no bias correction.
//
// Each pair draws from its own named RNG stream, so results are
// reproducible for a given run seed no matter how pairs are scheduled.
func (e *Engine) bootstrapInterval(a, b *channelPhases, trials, samples int, pair signal.ChannelPair, opts Options) (lower, upper []float64) {
	rng := e.rng.Stream(fmt.Sprintf("bootstrap/%s-%s", pair.A, pair.B), opts.Seed)

	distribution := make([][]float64, samples)
	for s := range distribution {
		distribution[s] = make([]float64, 0, opts.BootstrapReps)
	}

	resampled := make([]int, trials)
	for rep := 0; rep < opts.BootstrapReps; rep++ {
		for t := range resampled {
			resampled[t] = rng.Intn(trials)
		}
		values := lockingSeries(a, b, resampled, samples)
		for s, v := range values {
			distribution[s] = append(distribution[s], v)
		}
	}

	lower = make([]float64, samples)
	upper = make([]float64, samples)
	for s := range distribution {
		lo, err := stats.Percentile(distribution[s], 2.5)
		if err != nil {
			lo = distribution[s][0]
		}
		hi, err := stats.Percentile(distribution[s], 97.5)
		if err != nil {
			hi = distribution[s][0]
		}
		lower[s] = lo
		upper[s] = hi
	}
	return lower, upper
}
