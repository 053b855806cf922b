package ports

import (
	"context"

	"neurosync/domain/core"
	"neurosync/domain/signal"
)

// TrialInfo carries per-trial behavioral metadata supplied alongside the
// epoched signal. Upstream trial subsetting (e.g. by response time) happens
// before the array reaches the estimator.
type TrialInfo struct {
	Index      int     `json:"index"`
	ResponseMs float64 `json:"response_ms"`
	Correct    bool    `json:"correct"`
	Condition  string  `json:"condition"`
}

// Recording bundles an epoched signal array with its trial metadata.
type Recording struct {
	ID     core.RecordingID
	Epochs *signal.EpochArray
	Trials []TrialInfo
}

// EpochSource supplies epoched EEG segments. Parsing of proprietary EEG
// file formats lives behind this interface; the core never reads files.
type EpochSource interface {
	// Load returns the recording for the given reference.
	Load(ctx context.Context, id core.RecordingID) (*Recording, error)

	// List enumerates available recording references.
	List(ctx context.Context) ([]core.RecordingID, error)
}
