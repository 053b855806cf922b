package signal

import "math"

// Window is a closed millisecond interval relative to epoch start.
//
// The mapping to sample indices is an explicit contract rather than a
// nearest-index search: the start index is the ceiling of StartMs*rate/1000
// and the end index the floor of EndMs*rate/1000, so a requested interval
// never includes a sample outside it. In sample coordinates the window is
// half-open [start, end+1).
type Window struct {
	StartMs float64 `json:"start_ms"`
	EndMs   float64 `json:"end_ms"`
}

// SampleRange maps the window onto sample indices for the given rate,
// clamped to [0, samples). ok is false when the mapped range is empty.
func (w Window) SampleRange(sampleRate float64, samples int) (start, end int, ok bool) {
	start = int(math.Ceil(w.StartMs * sampleRate / 1000))
	end = int(math.Floor(w.EndMs*sampleRate/1000)) + 1
	if start < 0 {
		start = 0
	}
	if end > samples {
		end = samples
	}
	if start >= end {
		return 0, 0, false
	}
	return start, end, true
}

// FullWindow covers every sample of an epoch of the given length and rate.
func FullWindow(sampleRate float64, samples int) Window {
	return Window{
		StartMs: 0,
		EndMs:   float64(samples-1) / sampleRate * 1000,
	}
}
