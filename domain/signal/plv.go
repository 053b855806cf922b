package signal

import "neurosync/domain/core"

// ChannelPair identifies an unordered channel pair by label and index into
// the epoch array the result was computed from.
type ChannelPair struct {
	A      core.ChannelLabel `json:"a"`
	B      core.ChannelLabel `json:"b"`
	AIndex int               `json:"a_index"`
	BIndex int               `json:"b_index"`
}

// PLVSeries is the phase-locking value over time for one channel pair.
// Values lie in [0, 1]: 1 means the phase difference is identical across
// trials at that instant, 0 means it is uniformly random. Lower and Upper
// hold percentile-bootstrap bounds and are nil when bootstrapping is
// disabled.
type PLVSeries struct {
	Pair   ChannelPair `json:"pair"`
	Values []float64   `json:"values"`
	Lower  []float64   `json:"lower,omitempty"`
	Upper  []float64   `json:"upper,omitempty"`
}

// PLVResult is the trimmed, windowed output of one estimator invocation.
// TimeMs[i] is the epoch-relative time of sample StartSample+i; every
// series shares the axis. Warnings carry non-fatal degenerate-signal
// diagnostics.
type PLVResult struct {
	TimeMs      []float64                 `json:"time_ms"`
	StartSample int                       `json:"start_sample"`
	EndSample   int                       `json:"end_sample"` // exclusive
	Pairs       []PLVSeries               `json:"pairs"`
	Warnings    []DegenerateSignalWarning `json:"warnings,omitempty"`
}
