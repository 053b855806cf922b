package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurosync/adapters/plv"
	"neurosync/adapters/rng"
	"neurosync/domain/core"
	"neurosync/domain/run"
	"neurosync/domain/signal"
	"neurosync/internal/testkit"
)

func newTestService() (*AnalysisService, *testkit.MemoryRepository) {
	source := testkit.NewSyntheticSource(testkit.DefaultSyntheticConfig())
	repo := testkit.NewMemoryRepository()
	engine := plv.NewEngine(rng.New(), 2)
	return NewAnalysisService(source, repo, engine), repo
}

func TestExecuteCompletesRun(t *testing.T) {
	service, repo := newTestService()

	ar, err := service.Execute(context.Background(), SubmitRequest{
		RecordingID: "subject-01",
		Band:        signal.BandSpec{LowHz: 4, HighHz: 12, Order: 64},
	})
	require.NoError(t, err)
	assert.Equal(t, run.StatusCompleted, ar.Status)
	assert.NotEmpty(t, ar.Fingerprint)
	assert.False(t, ar.StartedAt.IsZero())
	assert.False(t, ar.FinishedAt.IsZero())

	stored, err := repo.GetRun(context.Background(), ar.ID)
	require.NoError(t, err)
	assert.Equal(t, run.StatusCompleted, stored.Status)

	result, err := service.GetResult(context.Background(), ar.ID)
	require.NoError(t, err)
	// 4 synthetic channels, all pairs
	assert.Len(t, result.Pairs, 6)
	assert.NotEmpty(t, result.TimeMs)
}

func TestExecuteRecordsValidationFailure(t *testing.T) {
	service, repo := newTestService()

	ar, err := service.Execute(context.Background(), SubmitRequest{
		RecordingID: "subject-02",
		Band:        signal.BandSpec{LowHz: 12, HighHz: 4, Order: 64},
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	require.NotNil(t, ar)
	assert.Equal(t, run.StatusFailed, ar.Status)
	assert.NotEmpty(t, ar.ErrorMessage)

	stored, err := repo.GetRun(context.Background(), ar.ID)
	require.NoError(t, err)
	assert.Equal(t, run.StatusFailed, stored.Status)

	_, err = service.GetResult(context.Background(), ar.ID)
	assert.True(t, core.IsNotFoundError(err))
}

func TestListRunsNewestFirst(t *testing.T) {
	service, _ := newTestService()

	first, err := service.Execute(context.Background(), SubmitRequest{
		RecordingID: "subject-03",
		Band:        signal.BandSpec{LowHz: 4, HighHz: 12, Order: 64},
	})
	require.NoError(t, err)
	second, err := service.Execute(context.Background(), SubmitRequest{
		RecordingID: "subject-04",
		Band:        signal.BandSpec{LowHz: 4, HighHz: 12, Order: 64},
	})
	require.NoError(t, err)

	runs, err := service.ListRuns(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)
}

func TestGetRunNotFound(t *testing.T) {
	service, _ := newTestService()

	_, err := service.GetRun(context.Background(), core.RunID("missing"))
	assert.True(t, core.IsNotFoundError(err))
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(&signal.InvalidFilterSpecError{Reason: "x"}))
	assert.True(t, IsValidationError(&signal.InsufficientTrialsError{Trials: 1}))
	assert.False(t, IsValidationError(context.Canceled))
	assert.False(t, IsValidationError(nil))
}

func TestArtifactsEnumeration(t *testing.T) {
	service, _ := newTestService()

	ar, err := service.Execute(context.Background(), SubmitRequest{
		RecordingID:   "subject-06",
		Band:          signal.BandSpec{LowHz: 4, HighHz: 12, Order: 64},
		BootstrapReps: 20,
		Seed:          3,
	})
	require.NoError(t, err)

	artifacts, err := service.Artifacts(context.Background(), ar.ID)
	require.NoError(t, err)

	kinds := map[core.ArtifactKind]int{}
	for _, a := range artifacts {
		kinds[a.Kind]++
	}
	assert.Equal(t, 1, kinds[core.ArtifactRun])
	assert.Equal(t, 6, kinds[core.ArtifactPLVSeries])
	assert.Equal(t, 6, kinds[core.ArtifactBootstrapInterval])
}

func TestModelingSummary(t *testing.T) {
	source := testkit.NewSyntheticSource(testkit.DefaultSyntheticConfig())
	service := NewModelingService(source)

	summary, err := service.Summarize(context.Background(), "subject-05")
	require.NoError(t, err)
	assert.Equal(t, 40, summary.Trials)
	assert.GreaterOrEqual(t, summary.ErrorRate, 0.0)
	assert.LessOrEqual(t, summary.ErrorRate, 1.0)
	if summary.ExGaussian != nil {
		assert.Greater(t, summary.ExGaussian.Sigma, 0.0)
		assert.Greater(t, summary.ExGaussian.Tau, 0.0)
	}
}
