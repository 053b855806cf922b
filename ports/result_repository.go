package ports

import (
	"context"

	"neurosync/domain/core"
	"neurosync/domain/run"
	"neurosync/domain/signal"
)

// ResultRepository persists analysis runs and their outputs. The storage
// format is opaque to the core; implementations may store series in any
// structured-array container.
type ResultRepository interface {
	CreateRun(ctx context.Context, r *run.AnalysisRun) error
	UpdateRun(ctx context.Context, r *run.AnalysisRun) error
	GetRun(ctx context.Context, id core.RunID) (*run.AnalysisRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*run.AnalysisRun, error)

	SaveResult(ctx context.Context, id core.RunID, result *signal.PLVResult) error
	GetResult(ctx context.Context, id core.RunID) (*signal.PLVResult, error)
}
