package signal

// BandSpec describes a band-pass filter: a frequency band in Hz and a
// filter order. The order determines the transient length trimmed from
// both ends of any filtered series.
type BandSpec struct {
	LowHz  float64 `json:"low_hz"`
	HighHz float64 `json:"high_hz"`
	Order  int     `json:"order"`
}

// Validate checks the band edges against the Nyquist frequency. Edges must
// lie strictly within (0, sampleRate/2) with low < high, and the order must
// be non-negative.
func (b BandSpec) Validate(sampleRate float64) error {
	nyquist := sampleRate / 2
	switch {
	case sampleRate <= 0:
		return &InvalidFilterSpecError{Spec: b, Reason: "sample rate must be positive"}
	case b.Order < 0:
		return &InvalidFilterSpecError{Spec: b, Reason: "filter order must be non-negative"}
	case b.LowHz <= 0:
		return &InvalidFilterSpecError{Spec: b, Reason: "low edge must be above 0 Hz"}
	case b.HighHz >= nyquist:
		return &InvalidFilterSpecError{Spec: b, Reason: "high edge must be below the Nyquist frequency"}
	case b.LowHz >= b.HighHz:
		return &InvalidFilterSpecError{Spec: b, Reason: "low edge must be below high edge"}
	}
	return nil
}

// TransientSamples is the number of unreliable samples at each end of a
// filtered series.
func (b BandSpec) TransientSamples() int {
	return b.Order
}
