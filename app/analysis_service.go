package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"neurosync/adapters/plv"
	"neurosync/domain/core"
	"neurosync/domain/run"
	"neurosync/domain/signal"
	"neurosync/ports"
)

// AnalysisService orchestrates phase-locking runs: load the recording,
// run the estimator, persist the outcome. Validation failures are
// recorded on the run, not swallowed.
type AnalysisService struct {
	source ports.EpochSource
	repo   ports.ResultRepository
	engine *plv.Engine
}

// NewAnalysisService wires the service with its ports.
func NewAnalysisService(source ports.EpochSource, repo ports.ResultRepository, engine *plv.Engine) *AnalysisService {
	return &AnalysisService{source: source, repo: repo, engine: engine}
}

// SubmitRequest describes a requested analysis run.
type SubmitRequest struct {
	RecordingID   core.RecordingID    `json:"recording_id"`
	Band          signal.BandSpec     `json:"band"`
	Window        signal.Window       `json:"window"`
	ROI           []core.ChannelLabel `json:"roi,omitempty"`
	SeedChannel   core.ChannelLabel   `json:"seed_channel,omitempty"`
	BootstrapReps int                 `json:"bootstrap_reps"`
	Seed          int64               `json:"seed"`
}

// Execute creates, runs and persists an analysis run synchronously,
// returning the finished run record. The run is stored in its failed
// state when the estimator rejects the input, so the caller can inspect
// what went wrong later.
func (s *AnalysisService) Execute(ctx context.Context, req SubmitRequest) (*run.AnalysisRun, error) {
	r := run.NewAnalysisRun(req.RecordingID, req.Band, req.Window, req.ROI, req.BootstrapReps, req.Seed)
	r.SeedChannel = req.SeedChannel
	r.Fingerprint = run.Fingerprint(r)

	if err := s.repo.CreateRun(ctx, r); err != nil {
		return nil, err
	}

	r.MarkRunning()
	if err := s.repo.UpdateRun(ctx, r); err != nil {
		return nil, err
	}
	log.Printf("[AnalysisService] run %s started: recording=%s band=%.3g-%.3g Hz order=%d bootstrap=%d",
		r.ID, r.RecordingID, r.Band.LowHz, r.Band.HighHz, r.Band.Order, r.BootstrapReps)

	recording, err := s.source.Load(ctx, req.RecordingID)
	if err != nil {
		return s.fail(ctx, r, err)
	}

	result, err := s.engine.Compute(ctx, recording.Epochs, req.Band, plv.Options{
		Window:        req.Window,
		ROI:           req.ROI,
		SeedChannel:   req.SeedChannel,
		BootstrapReps: req.BootstrapReps,
		Seed:          req.Seed,
	})
	if err != nil {
		return s.fail(ctx, r, err)
	}

	if err := s.repo.SaveResult(ctx, r.ID, result); err != nil {
		return s.fail(ctx, r, err)
	}

	r.MarkCompleted()
	if err := s.repo.UpdateRun(ctx, r); err != nil {
		return nil, err
	}
	log.Printf("[AnalysisService] run %s completed: %d pairs, %d samples, %d warnings",
		r.ID, len(result.Pairs), len(result.TimeMs), len(result.Warnings))
	return r, nil
}

// GetRun fetches a run record.
func (s *AnalysisService) GetRun(ctx context.Context, id core.RunID) (*run.AnalysisRun, error) {
	return s.repo.GetRun(ctx, id)
}

// ListRuns pages over run records, newest first.
func (s *AnalysisService) ListRuns(ctx context.Context, limit, offset int) ([]*run.AnalysisRun, error) {
	return s.repo.ListRuns(ctx, limit, offset)
}

// GetResult fetches the PLV output of a completed run.
func (s *AnalysisService) GetResult(ctx context.Context, id core.RunID) (*signal.PLVResult, error) {
	return s.repo.GetResult(ctx, id)
}

// Artifacts enumerates the persisted outputs of a run: the run record
// itself, one series artifact per channel pair and one interval artifact
// per bootstrapped pair. Runs without a stored result yield just the run
// artifact.
func (s *AnalysisService) Artifacts(ctx context.Context, id core.RunID) ([]core.Artifact, error) {
	r, err := s.repo.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}

	artifacts := []core.Artifact{{
		ID:        core.ID(r.ID),
		Kind:      core.ArtifactRun,
		Payload:   r,
		CreatedAt: r.CreatedAt,
	}}

	result, err := s.repo.GetResult(ctx, id)
	if err != nil {
		if core.IsNotFoundError(err) {
			return artifacts, nil
		}
		return nil, err
	}

	for _, pair := range result.Pairs {
		name := fmt.Sprintf("%s/%s-%s", r.ID, pair.Pair.A, pair.Pair.B)
		artifacts = append(artifacts, core.Artifact{
			ID:        core.ID(name),
			Kind:      core.ArtifactPLVSeries,
			Payload:   pair,
			CreatedAt: r.FinishedAt,
		})
		if pair.Lower != nil {
			artifacts = append(artifacts, core.Artifact{
				ID:   core.ID(name + "/interval"),
				Kind: core.ArtifactBootstrapInterval,
				Payload: map[string]interface{}{
					"pair":  pair.Pair,
					"lower": pair.Lower,
					"upper": pair.Upper,
				},
				CreatedAt: r.FinishedAt,
			})
		}
	}
	return artifacts, nil
}

// IsValidationError reports whether the run failed on input validation
// rather than infrastructure.
func IsValidationError(err error) bool {
	var filterErr *signal.InvalidFilterSpecError
	var trialsErr *signal.InsufficientTrialsError
	var windowErr *signal.WindowTooShortError
	return errors.As(err, &filterErr) || errors.As(err, &trialsErr) || errors.As(err, &windowErr)
}

func (s *AnalysisService) fail(ctx context.Context, r *run.AnalysisRun, cause error) (*run.AnalysisRun, error) {
	r.MarkFailed(cause)
	if err := s.repo.UpdateRun(ctx, r); err != nil {
		log.Printf("[AnalysisService] failed to record run failure for %s: %v", r.ID, err)
	}
	log.Printf("[AnalysisService] run %s failed: %v", r.ID, cause)
	return r, cause
}
