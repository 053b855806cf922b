package plv

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"neurosync/adapters/rng"
	"neurosync/domain/core"
	"neurosync/domain/signal"
)

// buildEpochs assembles an EpochArray from per-channel, per-trial traces:
// traces[channel][trial][sample].
func buildEpochs(t *testing.T, traces [][][]float64, sampleRate float64) *signal.EpochArray {
	t.Helper()
	channels := len(traces)
	trials := len(traces[0])
	samples := len(traces[0][0])

	data := make([]float64, channels*samples*trials)
	for c := 0; c < channels; c++ {
		for tr := 0; tr < trials; tr++ {
			for s := 0; s < samples; s++ {
				data[(c*samples+s)*trials+tr] = traces[c][tr][s]
			}
		}
	}
	epochs, err := signal.NewEpochArray(data, channels, samples, trials, sampleRate, nil)
	if err != nil {
		t.Fatalf("building epochs: %v", err)
	}
	return epochs
}

func sineTrace(freq, rate float64, n int, phase float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2*math.Pi*freq*float64(i)/rate + phase)
	}
	return x
}

func testBand() signal.BandSpec {
	return signal.BandSpec{LowHz: 6, HighHz: 10, Order: 50}
}

func newTestEngine() *Engine {
	return NewEngine(rng.New(), 4)
}

// Two channels, 4 trials, 500 Hz, 1000 samples, band (6,10) order 50:
// identical signals on both channels give a phase difference of exactly 0
// in every trial, so PLV must be 1.0 across the whole trimmed window.
func TestCompute_PerfectSynchrony(t *testing.T) {
	rate := 500.0
	n := 1000
	trials := 4

	a := make([][]float64, trials)
	b := make([][]float64, trials)
	for k := 0; k < trials; k++ {
		trace := sineTrace(8, rate, n, float64(k)*0.7)
		a[k] = trace
		b[k] = trace
	}
	epochs := buildEpochs(t, [][][]float64{a, b}, rate)

	result, err := newTestEngine().Compute(context.Background(), epochs, testBand(), Options{})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if result.StartSample != 50 || result.EndSample != 950 {
		t.Fatalf("trimmed window [%d, %d), want [50, 950)", result.StartSample, result.EndSample)
	}
	if len(result.Pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(result.Pairs))
	}
	for i, v := range result.Pairs[0].Values {
		if math.Abs(v-1) > 1e-9 {
			t.Fatalf("plv[%d] = %.15f, want 1.0", i, v)
		}
	}
}

// Phase differences of {0, pi/2, pi, 3pi/2} across the four trials are
// perfectly spread on the circle, so the mean unit vector vanishes and
// PLV must be 0.0 across the trimmed window.
func TestCompute_PerfectSpread(t *testing.T) {
	rate := 500.0
	n := 1000

	base := sineTrace(8, rate, n, 0)
	quarter := sineTrace(8, rate, n, math.Pi/2)
	negBase := make([]float64, n)
	negQuarter := make([]float64, n)
	for i := range base {
		negBase[i] = -base[i]
		negQuarter[i] = -quarter[i]
	}

	a := [][]float64{base, base, base, base}
	b := [][]float64{base, quarter, negBase, negQuarter}
	epochs := buildEpochs(t, [][][]float64{a, b}, rate)

	result, err := newTestEngine().Compute(context.Background(), epochs, testBand(), Options{})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	for i, v := range result.Pairs[0].Values {
		if v > 1e-9 {
			t.Fatalf("plv[%d] = %.15f, want 0.0", i, v)
		}
	}
}

// PLV is bounded to [0, 1] for arbitrary inputs.
func TestCompute_Bounds(t *testing.T) {
	rate := 250.0
	n := 600
	trials := 8
	source := rand.New(rand.NewSource(42))

	traces := make([][][]float64, 3)
	for c := range traces {
		traces[c] = make([][]float64, trials)
		for k := 0; k < trials; k++ {
			x := make([]float64, n)
			for s := range x {
				x[s] = source.NormFloat64()
			}
			traces[c][k] = x
		}
	}
	epochs := buildEpochs(t, traces, rate)

	band := signal.BandSpec{LowHz: 6, HighHz: 10, Order: 30}
	result, err := newTestEngine().Compute(context.Background(), epochs, band, Options{})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if len(result.Pairs) != 3 {
		t.Fatalf("3 channels should give 3 unordered pairs, got %d", len(result.Pairs))
	}
	for _, pair := range result.Pairs {
		for i, v := range pair.Values {
			if v < 0 || v > 1 {
				t.Fatalf("pair %v plv[%d] = %v out of [0,1]", pair.Pair, i, v)
			}
		}
	}
}

// With many trials of independent random phase, the PLV approaches 0.
func TestCompute_UniformPhasesApproachZero(t *testing.T) {
	rate := 250.0
	n := 400
	trials := 200
	source := rand.New(rand.NewSource(7))

	a := make([][]float64, trials)
	b := make([][]float64, trials)
	for k := 0; k < trials; k++ {
		a[k] = sineTrace(8, rate, n, 2*math.Pi*source.Float64())
		b[k] = sineTrace(8, rate, n, 2*math.Pi*source.Float64())
	}
	epochs := buildEpochs(t, [][][]float64{a, b}, rate)

	band := signal.BandSpec{LowHz: 6, HighHz: 10, Order: 30}
	result, err := newTestEngine().Compute(context.Background(), epochs, band, Options{})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	// Expected magnitude of the mean of N random unit vectors is
	// ~sqrt(pi/(4N)) ~= 0.063 for N=200; allow generous headroom.
	var mean float64
	for _, v := range result.Pairs[0].Values {
		mean += v
	}
	mean /= float64(len(result.Pairs[0].Values))
	if mean > 0.2 {
		t.Fatalf("mean plv over uniform phases = %v, want near 0", mean)
	}
}

// Without bootstrap the result carries no interval and is bit-identical
// across invocations.
func TestCompute_DeterministicWithoutBootstrap(t *testing.T) {
	rate := 250.0
	a := [][]float64{sineTrace(8, rate, 400, 0), sineTrace(8, rate, 400, 1)}
	b := [][]float64{sineTrace(8, rate, 400, 2), sineTrace(8, rate, 400, 3)}
	epochs := buildEpochs(t, [][][]float64{a, b}, rate)
	band := signal.BandSpec{LowHz: 6, HighHz: 10, Order: 30}

	engine := newTestEngine()
	first, err := engine.Compute(context.Background(), epochs, band, Options{})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	second, err := engine.Compute(context.Background(), epochs, band, Options{})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if first.Pairs[0].Lower != nil || first.Pairs[0].Upper != nil {
		t.Fatal("interval bounds must be absent when bootstrap is disabled")
	}
	if !reflect.DeepEqual(first.Pairs[0].Values, second.Pairs[0].Values) {
		t.Fatal("repeated computation must be bit-identical")
	}
}

func TestCompute_ErrInsufficientTrials(t *testing.T) {
	rate := 250.0
	a := [][]float64{sineTrace(8, rate, 400, 0)}
	b := [][]float64{sineTrace(8, rate, 400, 1)}
	epochs := buildEpochs(t, [][][]float64{a, b}, rate)

	_, err := newTestEngine().Compute(context.Background(), epochs, testBand(), Options{})
	var insufficient *signal.InsufficientTrialsError
	if !asError(err, &insufficient) {
		t.Fatalf("expected InsufficientTrialsError, got %v", err)
	}
}

func TestCompute_ErrInvalidFilterSpec(t *testing.T) {
	rate := 250.0
	a := [][]float64{sineTrace(8, rate, 400, 0), sineTrace(8, rate, 400, 1)}
	b := [][]float64{sineTrace(8, rate, 400, 2), sineTrace(8, rate, 400, 3)}
	epochs := buildEpochs(t, [][][]float64{a, b}, rate)

	cases := []signal.BandSpec{
		{LowHz: 10, HighHz: 6, Order: 30},   // low >= high
		{LowHz: 0, HighHz: 10, Order: 30},   // low at DC
		{LowHz: 6, HighHz: 130, Order: 30},  // high above Nyquist
		{LowHz: 6, HighHz: 10, Order: -1},   // negative order
	}
	for _, band := range cases {
		_, err := newTestEngine().Compute(context.Background(), epochs, band, Options{})
		var invalid *signal.InvalidFilterSpecError
		if !asError(err, &invalid) {
			t.Fatalf("band %+v: expected InvalidFilterSpecError, got %v", band, err)
		}
	}
}

func TestCompute_ErrWindowTooShort(t *testing.T) {
	rate := 250.0
	a := [][]float64{sineTrace(8, rate, 400, 0), sineTrace(8, rate, 400, 1)}
	b := [][]float64{sineTrace(8, rate, 400, 2), sineTrace(8, rate, 400, 3)}
	epochs := buildEpochs(t, [][][]float64{a, b}, rate)

	// 400 samples at 250 Hz is 1600 ms; a window inside the leading
	// transient of an order-150 filter cannot survive trimming.
	band := signal.BandSpec{LowHz: 6, HighHz: 10, Order: 150}
	opts := Options{Window: signal.Window{StartMs: 0, EndMs: 400}}

	_, err := newTestEngine().Compute(context.Background(), epochs, band, opts)
	var tooShort *signal.WindowTooShortError
	if !asError(err, &tooShort) {
		t.Fatalf("expected WindowTooShortError, got %v", err)
	}
}

// An all-zero channel has undefined phase everywhere: the run must still
// succeed, flag the degenerate traces, and report PLV 0 by convention.
func TestCompute_DegenerateSignal(t *testing.T) {
	rate := 250.0
	n := 400
	zero := make([]float64, n)

	a := [][]float64{sineTrace(8, rate, n, 0), sineTrace(8, rate, n, 1)}
	b := [][]float64{append([]float64(nil), zero...), append([]float64(nil), zero...)}
	epochs := buildEpochs(t, [][][]float64{a, b}, rate)

	band := signal.BandSpec{LowHz: 6, HighHz: 10, Order: 30}
	result, err := newTestEngine().Compute(context.Background(), epochs, band, Options{})
	if err != nil {
		t.Fatalf("degenerate signal must not fail the run: %v", err)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected degenerate signal warnings")
	}
	for i, v := range result.Pairs[0].Values {
		if v != 0 {
			t.Fatalf("plv[%d] = %v, want 0 for an all-zero channel", i, v)
		}
	}
}

func TestCompute_SeedChannelMode(t *testing.T) {
	rate := 250.0
	n := 400
	traces := make([][][]float64, 4)
	for c := range traces {
		traces[c] = [][]float64{
			sineTrace(8, rate, n, float64(c)),
			sineTrace(8, rate, n, float64(c)+0.5),
		}
	}
	epochs := buildEpochs(t, traces, rate)

	band := signal.BandSpec{LowHz: 6, HighHz: 10, Order: 30}
	result, err := newTestEngine().Compute(context.Background(), epochs, band, Options{
		SeedChannel: core.ChannelLabel("ch00"),
	})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(result.Pairs) != 3 {
		t.Fatalf("seed mode over 4 channels should give 3 pairs, got %d", len(result.Pairs))
	}
	for _, pair := range result.Pairs {
		if pair.Pair.A != "ch00" {
			t.Fatalf("seed channel must be the first of every pair, got %v", pair.Pair)
		}
	}
}

func TestCompute_WindowRestriction(t *testing.T) {
	rate := 500.0
	n := 1000
	a := [][]float64{sineTrace(8, rate, n, 0), sineTrace(8, rate, n, 1)}
	b := [][]float64{sineTrace(8, rate, n, 2), sineTrace(8, rate, n, 3)}
	epochs := buildEpochs(t, [][][]float64{a, b}, rate)

	// 400..1200 ms at 500 Hz is samples [200, 601); order 50 trims
	// nothing extra because the window already clears the transients.
	opts := Options{Window: signal.Window{StartMs: 400, EndMs: 1200}}
	result, err := newTestEngine().Compute(context.Background(), epochs, testBand(), opts)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if result.StartSample != 200 || result.EndSample != 601 {
		t.Fatalf("window mapped to [%d, %d), want [200, 601)", result.StartSample, result.EndSample)
	}
	if got := len(result.Pairs[0].Values); got != 401 {
		t.Fatalf("series length %d, want 401", got)
	}
	if math.Abs(result.TimeMs[0]-400) > 1e-9 {
		t.Fatalf("time axis starts at %v ms, want 400", result.TimeMs[0])
	}
}

func asError(err error, target interface{}) bool {
	return err != nil && errors.As(err, target)
}
