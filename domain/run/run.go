package run

import (
	"neurosync/domain/core"
	"neurosync/domain/signal"
)

// Status tracks the lifecycle of an analysis run
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// AnalysisRun is one execution of the phase-locking pipeline over a
// recording. It captures everything needed to reproduce the result.
type AnalysisRun struct {
	ID            core.RunID          `json:"id"`
	RecordingID   core.RecordingID    `json:"recording_id"`
	Band          signal.BandSpec     `json:"band"`
	Window        signal.Window       `json:"window"`
	ROI           []core.ChannelLabel `json:"roi"`
	SeedChannel   core.ChannelLabel   `json:"seed_channel,omitempty"`
	BootstrapReps int                 `json:"bootstrap_reps"`
	Seed          int64               `json:"seed"`
	Status        Status              `json:"status"`
	ErrorMessage  string              `json:"error_message,omitempty"`
	Fingerprint   string              `json:"fingerprint"`
	CreatedAt     core.Timestamp      `json:"created_at"`
	StartedAt     core.Timestamp      `json:"started_at,omitempty"`
	FinishedAt    core.Timestamp      `json:"finished_at,omitempty"`
}

// NewAnalysisRun creates a pending run with a fresh ID and fingerprint
func NewAnalysisRun(recording core.RecordingID, band signal.BandSpec, window signal.Window, roi []core.ChannelLabel, bootstrapReps int, seed int64) *AnalysisRun {
	r := &AnalysisRun{
		ID:            core.RunID(core.NewID()),
		RecordingID:   recording,
		Band:          band,
		Window:        window,
		ROI:           roi,
		BootstrapReps: bootstrapReps,
		Seed:          seed,
		Status:        StatusPending,
		CreatedAt:     core.Now(),
	}
	r.Fingerprint = Fingerprint(r)
	return r
}

// MarkRunning transitions the run to the running state
func (r *AnalysisRun) MarkRunning() {
	r.Status = StatusRunning
	r.StartedAt = core.Now()
}

// MarkCompleted transitions the run to the completed state
func (r *AnalysisRun) MarkCompleted() {
	r.Status = StatusCompleted
	r.FinishedAt = core.Now()
}

// MarkFailed records a failure message and transitions to failed
func (r *AnalysisRun) MarkFailed(err error) {
	r.Status = StatusFailed
	r.ErrorMessage = err.Error()
	r.FinishedAt = core.Now()
}
