// Package plv implements the phase-locking value estimator: zero-phase
// band-pass filtering, Hilbert phase extraction and the circular mean of
// phase differences across trials, with optional percentile-bootstrap
// confidence intervals.
package plv

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/cmplx"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"neurosync/adapters/dsp"
	"neurosync/domain/core"
	"neurosync/domain/signal"
	"neurosync/ports"
)

// Options configures a single estimator invocation.
type Options struct {
	// Window restricts the extraction window in epoch-relative
	// milliseconds. The zero value means the full epoch.
	Window signal.Window

	// ROI lists the channels whose unordered pairs are analyzed. Empty
	// means every channel in the array.
	ROI []core.ChannelLabel

	// SeedChannel, when set, switches from all-pairs mode to pairing the
	// seed against every other ROI channel.
	SeedChannel core.ChannelLabel

	// BootstrapReps is the number of trial resamples; 0 disables interval
	// estimation and makes the result bit-deterministic.
	BootstrapReps int

	// Seed drives the bootstrap RNG streams.
	Seed int64
}

// Engine computes phase-locking values over epoched EEG data. It is
// stateless apart from its RNG source and worker budget and is safe for
// concurrent use.
type Engine struct {
	rng     ports.RNG
	workers int64
}

// NewEngine creates an estimator with the given parallelism across
// channel pairs.
func NewEngine(rng ports.RNG, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{rng: rng, workers: int64(workers)}
}

// channelPhases holds the per-trial instantaneous phase of one channel
// restricted to the trimmed window, plus a validity mask (false where the
// amplitude was zero and the phase undefined).
type channelPhases struct {
	phase [][]float64
	valid [][]bool
}

// Compute runs the estimator. All error conditions are input-validation
// failures detected before computation begins; degenerate signals are
// diagnostics on the result, never errors.
func (e *Engine) Compute(ctx context.Context, epochs *signal.EpochArray, band signal.BandSpec, opts Options) (*signal.PLVResult, error) {
	if err := band.Validate(epochs.SampleRate()); err != nil {
		return nil, err
	}
	if epochs.Trials() < 2 {
		return nil, &signal.InsufficientTrialsError{Trials: epochs.Trials()}
	}

	window := opts.Window
	if window == (signal.Window{}) {
		window = signal.FullWindow(epochs.SampleRate(), epochs.Samples())
	}

	start, end, err := trimmedRange(window, band, epochs)
	if err != nil {
		return nil, err
	}

	pairs, err := selectPairs(epochs, opts)
	if err != nil {
		return nil, err
	}

	phases, warnings := e.extractPhases(epochs, band, pairs, start, end)

	result := &signal.PLVResult{
		TimeMs:      timeAxis(epochs.SampleRate(), start, end),
		StartSample: start,
		EndSample:   end,
		Pairs:       make([]signal.PLVSeries, len(pairs)),
		Warnings:    warnings,
	}

	sem := semaphore.NewWeighted(e.workers)
	var wg sync.WaitGroup
	for i, pair := range pairs {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(idx int, p signal.ChannelPair) {
			defer sem.Release(1)
			defer wg.Done()
			// Each goroutine writes only its own result slot
			result.Pairs[idx] = e.computePair(p, phases, epochs.Trials(), opts)
		}(i, pair)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// trimmedRange intersects the requested window with the region that
// survives transient trimming, [order, samples-order).
func trimmedRange(window signal.Window, band signal.BandSpec, epochs *signal.EpochArray) (int, int, error) {
	trim := band.TransientSamples()
	samples := epochs.Samples()

	start, end, ok := window.SampleRange(epochs.SampleRate(), samples)
	if !ok {
		return 0, 0, &signal.WindowTooShortError{Window: window, Transient: trim, Samples: samples}
	}
	if start < trim {
		start = trim
	}
	if end > samples-trim {
		end = samples - trim
	}
	if start >= end {
		return 0, 0, &signal.WindowTooShortError{Window: window, Transient: trim, Samples: samples}
	}
	return start, end, nil
}

// selectPairs resolves the ROI into channel pairs: all unordered pairs,
// or seed-against-rest when a seed channel is configured.
func selectPairs(epochs *signal.EpochArray, opts Options) ([]signal.ChannelPair, error) {
	labels := opts.ROI
	if len(labels) == 0 {
		labels = epochs.Labels()
	}

	indices := make([]int, len(labels))
	for i, label := range labels {
		idx, err := epochs.LabelIndex(label)
		if err != nil {
			return nil, err
		}
		indices[i] = idx
	}

	var pairs []signal.ChannelPair
	if opts.SeedChannel != "" {
		seedIdx, err := epochs.LabelIndex(opts.SeedChannel)
		if err != nil {
			return nil, err
		}
		for i, label := range labels {
			if indices[i] == seedIdx {
				continue
			}
			pairs = append(pairs, signal.ChannelPair{
				A: opts.SeedChannel, B: label, AIndex: seedIdx, BIndex: indices[i],
			})
		}
		return pairs, nil
	}

	for i := 0; i < len(labels); i++ {
		for j := i + 1; j < len(labels); j++ {
			pairs = append(pairs, signal.ChannelPair{
				A: labels[i], B: labels[j], AIndex: indices[i], BIndex: indices[j],
			})
		}
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("channel selection yields no pairs")
	}
	return pairs, nil
}

// extractPhases band-pass filters every (channel, trial) trace of the
// channels the pair set touches, forward-backward for zero phase shift,
// and extracts the instantaneous phase over the trimmed window.
func (e *Engine) extractPhases(epochs *signal.EpochArray, band signal.BandSpec, pairs []signal.ChannelPair, start, end int) (map[int]*channelPhases, []signal.DegenerateSignalWarning) {
	neededSet := map[int]bool{}
	for _, p := range pairs {
		neededSet[p.AIndex] = true
		neededSet[p.BIndex] = true
	}
	needed := make([]int, 0, len(neededSet))
	for ch := range neededSet {
		needed = append(needed, ch)
	}
	sort.Ints(needed)

	taps := dsp.DesignBandPass(band.LowHz, band.HighHz, epochs.SampleRate(), band.Order)

	var warnings []signal.DegenerateSignalWarning
	phases := make(map[int]*channelPhases, len(needed))
	var trace []float64
	for _, ch := range needed {
		cp := &channelPhases{
			phase: make([][]float64, epochs.Trials()),
			valid: make([][]bool, epochs.Trials()),
		}
		for trial := 0; trial < epochs.Trials(); trial++ {
			trace = epochs.Trace(ch, trial, trace)
			filtered := dsp.FiltFilt(taps, trace)
			phase, amplitude := dsp.InstantPhase(dsp.AnalyticSignal(filtered))

			cp.phase[trial] = append([]float64(nil), phase[start:end]...)
			valid := make([]bool, end-start)
			degenerate := 0
			for s := range valid {
				valid[s] = amplitude[start+s] > 0
				if !valid[s] {
					degenerate++
				}
			}
			cp.valid[trial] = valid
			if degenerate > 0 {
				warnings = append(warnings, signal.DegenerateSignalWarning{
					Channel: epochs.Labels()[ch],
					Trial:   trial,
					Count:   degenerate,
				})
			}
		}
		phases[ch] = cp
	}

	if len(warnings) > 0 {
		log.Printf("[PLVEngine] %d degenerate traces detected, affected samples contribute zero phase locking", len(warnings))
	}
	return phases, warnings
}

// computePair builds the PLV series for one channel pair, with bootstrap
// bounds when configured.
func (e *Engine) computePair(pair signal.ChannelPair, phases map[int]*channelPhases, trials int, opts Options) signal.PLVSeries {
	a := phases[pair.AIndex]
	b := phases[pair.BIndex]
	n := len(a.phase[0])

	identity := make([]int, trials)
	for t := range identity {
		identity[t] = t
	}

	series := signal.PLVSeries{Pair: pair, Values: lockingSeries(a, b, identity, n)}

	if opts.BootstrapReps > 0 {
		series.Lower, series.Upper = e.bootstrapInterval(a, b, trials, n, pair, opts)
	}
	return series
}

// lockingSeries computes |mean over the given trials of exp(i*dphi)| per
// sample. Trials whose sample is degenerate on either channel contribute
// a zero vector, so an all-degenerate sample yields 0 by convention.
func lockingSeries(a, b *channelPhases, trialIdx []int, samples int) []float64 {
	values := make([]float64, samples)
	for s := 0; s < samples; s++ {
		var sum complex128
		for _, t := range trialIdx {
			if !a.valid[t][s] || !b.valid[t][s] {
				continue
			}
			sum += cmplx.Exp(complex(0, a.phase[t][s]-b.phase[t][s]))
		}
		v := cmplx.Abs(sum) / float64(len(trialIdx))
		// Clamp accumulated rounding just above 1
		values[s] = math.Min(v, 1)
	}
	return values
}

// timeAxis builds the epoch-relative millisecond axis for the trimmed
// half-open sample range.
func timeAxis(sampleRate float64, start, end int) []float64 {
	axis := make([]float64, end-start)
	for i := range axis {
		axis[i] = float64(start+i) / sampleRate * 1000
	}
	return axis
}
