package app

import (
	"context"
	"log"

	"neurosync/adapters/modeling"
	"neurosync/domain/core"
	"neurosync/ports"
)

// SubjectSummary is one row of the subject-level modeling table consumed
// by downstream group analyses.
type SubjectSummary struct {
	RecordingID core.RecordingID        `json:"recording_id"`
	Trials      int                     `json:"trials"`
	ErrorRate   float64                 `json:"error_rate"`
	ExGaussian  *modeling.ExGaussianFit `json:"ex_gaussian,omitempty"`
	RTLogistic  *modeling.LogisticFit   `json:"rt_logistic,omitempty"`
}

// ModelingService derives behavioral summaries from trial metadata.
type ModelingService struct {
	source ports.EpochSource
}

// NewModelingService wires the service with its recording source.
func NewModelingService(source ports.EpochSource) *ModelingService {
	return &ModelingService{source: source}
}

// SummaryArtifact wraps the subject summary in the artifact envelope used
// alongside the run outputs.
func (s *ModelingService) SummaryArtifact(ctx context.Context, id core.RecordingID) (core.Artifact, error) {
	summary, err := s.Summarize(ctx, id)
	if err != nil {
		return core.Artifact{}, err
	}
	return core.Artifact{
		ID:        core.ID("summary/" + id.String()),
		Kind:      core.ArtifactSubjectSummary,
		Payload:   summary,
		CreatedAt: core.Now(),
	}, nil
}

// Summarize fits the subject-level models for one recording: an
// ex-Gaussian over correct-trial response times and a logistic
// regression of accuracy on response time. Either fit may be absent when
// the trial set is too small or too uniform to support it.
func (s *ModelingService) Summarize(ctx context.Context, id core.RecordingID) (*SubjectSummary, error) {
	recording, err := s.source.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := &SubjectSummary{
		RecordingID: id,
		Trials:      len(recording.Trials),
	}

	var correctRTs []float64
	var predictors [][]float64
	var outcomes []int
	errorCount := 0
	for _, trial := range recording.Trials {
		if trial.Correct {
			correctRTs = append(correctRTs, trial.ResponseMs)
		} else {
			errorCount++
		}
		predictors = append(predictors, []float64{trial.ResponseMs / 1000})
		if trial.Correct {
			outcomes = append(outcomes, 0)
		} else {
			outcomes = append(outcomes, 1)
		}
	}
	if summary.Trials > 0 {
		summary.ErrorRate = float64(errorCount) / float64(summary.Trials)
	}

	if fit, err := modeling.FitExGaussian(correctRTs); err == nil {
		summary.ExGaussian = &fit
	} else {
		log.Printf("[ModelingService] recording %s: ex-Gaussian fit skipped: %v", id, err)
	}

	if errorCount > 0 && errorCount < summary.Trials {
		if fit, err := modeling.FitLogistic(predictors, outcomes); err == nil {
			summary.RTLogistic = &fit
		} else {
			log.Printf("[ModelingService] recording %s: logistic fit skipped: %v", id, err)
		}
	}

	return summary, nil
}
