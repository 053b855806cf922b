package signal

import (
	"fmt"

	"neurosync/domain/core"
)

// EpochArray holds band-unfiltered, epoched EEG data with shape
// (channels, samples, trials) over a single flat backing slice.
// All trials share the sample rate and timebase; channel indices refer to
// the same channel set for the whole array. Inputs are treated as
// read-only once constructed.
type EpochArray struct {
	data       []float64
	channels   int
	samples    int
	trials     int
	sampleRate float64
	labels     []core.ChannelLabel
}

// NewEpochArray validates shape and wraps the backing data. The data slice
// is laid out channel-major: data[(c*samples+s)*trials+t].
func NewEpochArray(data []float64, channels, samples, trials int, sampleRate float64, labels []core.ChannelLabel) (*EpochArray, error) {
	if channels <= 0 || samples <= 0 || trials <= 0 {
		return nil, fmt.Errorf("epoch array dimensions must be positive, got (%d, %d, %d)", channels, samples, trials)
	}
	if len(data) != channels*samples*trials {
		return nil, fmt.Errorf("epoch array backing length %d does not match shape (%d, %d, %d)", len(data), channels, samples, trials)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %g", sampleRate)
	}
	if labels != nil && len(labels) != channels {
		return nil, fmt.Errorf("expected %d channel labels, got %d", channels, len(labels))
	}
	if labels == nil {
		labels = make([]core.ChannelLabel, channels)
		for c := range labels {
			labels[c] = core.ChannelLabel(fmt.Sprintf("ch%02d", c))
		}
	}
	return &EpochArray{
		data:       data,
		channels:   channels,
		samples:    samples,
		trials:     trials,
		sampleRate: sampleRate,
		labels:     labels,
	}, nil
}

// Channels returns the channel count
func (e *EpochArray) Channels() int { return e.channels }

// Samples returns the per-trial sample count
func (e *EpochArray) Samples() int { return e.samples }

// Trials returns the trial count
func (e *EpochArray) Trials() int { return e.trials }

// SampleRate returns samples per second
func (e *EpochArray) SampleRate() float64 { return e.sampleRate }

// Labels returns the channel label set
func (e *EpochArray) Labels() []core.ChannelLabel { return e.labels }

// At returns the sample at (channel, sample, trial)
func (e *EpochArray) At(channel, sample, trial int) float64 {
	return e.data[(channel*e.samples+sample)*e.trials+trial]
}

// Trace copies the time series for one (channel, trial) into dst, allocating
// when dst is nil or too short. Callers own the returned slice.
func (e *EpochArray) Trace(channel, trial int, dst []float64) []float64 {
	if cap(dst) < e.samples {
		dst = make([]float64, e.samples)
	}
	dst = dst[:e.samples]
	base := channel * e.samples
	for s := 0; s < e.samples; s++ {
		dst[s] = e.data[(base+s)*e.trials+trial]
	}
	return dst
}

// LabelIndex resolves a channel label to its index
func (e *EpochArray) LabelIndex(label core.ChannelLabel) (int, error) {
	for i, l := range e.labels {
		if l == label {
			return i, nil
		}
	}
	return 0, core.NewNotFoundError("channel", label.String())
}
