package signal

import (
	"fmt"

	"neurosync/domain/core"
)

// InvalidFilterSpecError reports a malformed band or order. All structural
// errors are raised before any computation proceeds.
type InvalidFilterSpecError struct {
	Spec   BandSpec
	Reason string
}

func (e *InvalidFilterSpecError) Error() string {
	return fmt.Sprintf("invalid filter spec (%.3g-%.3g Hz, order %d): %s",
		e.Spec.LowHz, e.Spec.HighHz, e.Spec.Order, e.Reason)
}

// InsufficientTrialsError reports fewer than the minimum two trials.
// Phase locking across fewer than 2 trials is undefined.
type InsufficientTrialsError struct {
	Trials int
}

func (e *InsufficientTrialsError) Error() string {
	return fmt.Sprintf("phase locking requires at least 2 trials, got %d", e.Trials)
}

// WindowTooShortError reports that the requested extraction window does
// not survive trimming the filter transient from both ends.
type WindowTooShortError struct {
	Window    Window
	Transient int
	Samples   int
}

func (e *WindowTooShortError) Error() string {
	return fmt.Sprintf("window [%.1f, %.1f] ms is empty after trimming %d transient samples from a %d-sample epoch",
		e.Window.StartMs, e.Window.EndMs, e.Transient, e.Samples)
}

// DegenerateSignalWarning is a non-fatal diagnostic: some samples had zero
// amplitude and therefore undefined instantaneous phase. Affected samples
// contribute a phase-locking value of 0 by convention; the run still
// returns a result.
type DegenerateSignalWarning struct {
	Channel core.ChannelLabel `json:"channel"`
	Trial   int               `json:"trial"`
	Count   int               `json:"count"` // degenerate samples on this trace
}

func (w DegenerateSignalWarning) String() string {
	return fmt.Sprintf("channel %s trial %d: %d zero-amplitude samples with undefined phase",
		w.Channel, w.Trial, w.Count)
}
