// Package testkit provides synthetic recordings and an in-memory
// repository, used by tests, the CLI and any deployment without a
// database.
package testkit

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"neurosync/domain/core"
	"neurosync/domain/signal"
	"neurosync/ports"
)

// SyntheticConfig shapes the generated recording.
type SyntheticConfig struct {
	Channels   int
	Samples    int
	Trials     int
	SampleRate float64
	CarrierHz  float64 // oscillation placed inside the analysis band
	Coupling   float64 // 0 = independent phases, 1 = perfectly locked
	NoiseSD    float64
	Seed       int64
}

// DefaultSyntheticConfig mimics a short visual-attention session:
// 500 Hz, 2-second epochs, theta-band coupling between the channels.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Channels:   4,
		Samples:    1000,
		Trials:     40,
		SampleRate: 500,
		CarrierHz:  8,
		Coupling:   0.7,
		NoiseSD:    0.3,
		Seed:       1,
	}
}

// SyntheticSource implements ports.EpochSource with generated data.
type SyntheticSource struct {
	config     SyntheticConfig
	mu         sync.Mutex
	recordings map[core.RecordingID]*ports.Recording
}

// NewSyntheticSource builds a source holding one generated recording per
// requested id; ids are materialized lazily on Load.
func NewSyntheticSource(config SyntheticConfig) *SyntheticSource {
	return &SyntheticSource{
		config:     config,
		recordings: make(map[core.RecordingID]*ports.Recording),
	}
}

// Load returns (generating on first use) the recording for id. The same
// id always yields the same data: the generator seed is derived from the
// id, so runs are reproducible.
func (s *SyntheticSource) Load(_ context.Context, id core.RecordingID) (*ports.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.recordings[id]; ok {
		return rec, nil
	}
	rec := s.generate(id)
	s.recordings[id] = rec
	return rec, nil
}

// List enumerates recordings generated so far.
func (s *SyntheticSource) List(_ context.Context) ([]core.RecordingID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]core.RecordingID, 0, len(s.recordings))
	for id := range s.recordings {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *SyntheticSource) generate(id core.RecordingID) *ports.Recording {
	cfg := s.config
	seed := cfg.Seed
	for _, b := range []byte(id) {
		seed = seed*31 + int64(b)
	}
	rng := rand.New(rand.NewSource(seed))

	data := make([]float64, cfg.Channels*cfg.Samples*cfg.Trials)
	trials := make([]ports.TrialInfo, cfg.Trials)

	for trial := 0; trial < cfg.Trials; trial++ {
		// Shared phase drives coupling; per-channel jitter dilutes it
		shared := 2 * math.Pi * rng.Float64()
		for ch := 0; ch < cfg.Channels; ch++ {
			own := 2 * math.Pi * rng.Float64()
			phase := cfg.Coupling*shared + (1-cfg.Coupling)*own
			for smp := 0; smp < cfg.Samples; smp++ {
				t := float64(smp) / cfg.SampleRate
				v := math.Sin(2*math.Pi*cfg.CarrierHz*t+phase) + cfg.NoiseSD*rng.NormFloat64()
				data[(ch*cfg.Samples+smp)*cfg.Trials+trial] = v
			}
		}

		rt := 350 + 80*rng.NormFloat64() + rng.ExpFloat64()*120
		trials[trial] = ports.TrialInfo{
			Index:      trial,
			ResponseMs: rt,
			Correct:    rng.Float64() > 0.12,
			Condition:  []string{"congruent", "incongruent"}[trial%2],
		}
	}

	epochs, err := signal.NewEpochArray(data, cfg.Channels, cfg.Samples, cfg.Trials, cfg.SampleRate, nil)
	if err != nil {
		// Config is internally consistent by construction
		panic(err)
	}

	return &ports.Recording{ID: id, Epochs: epochs, Trials: trials}
}
