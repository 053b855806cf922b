package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"neurosync/domain/core"
	"neurosync/domain/run"
	"neurosync/domain/signal"
	"neurosync/ports"
)

// resultRepository implements ports.ResultRepository on PostgreSQL
type resultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &resultRepository{db: db}
}

// CreateRun inserts a new analysis run
func (r *resultRepository) CreateRun(ctx context.Context, ar *run.AnalysisRun) error {
	roiJSON, err := json.Marshal(ar.ROI)
	if err != nil {
		return fmt.Errorf("failed to marshal roi: %w", err)
	}

	query := `INSERT INTO analysis_runs (
		id, recording_id, band_low_hz, band_high_hz, band_order,
		window_start_ms, window_end_ms, roi, seed_channel,
		bootstrap_reps, seed, status, error_message, fingerprint,
		created_at, started_at, finished_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
	)`

	_, err = r.db.ExecContext(ctx, query,
		ar.ID, ar.RecordingID, ar.Band.LowHz, ar.Band.HighHz, ar.Band.Order,
		ar.Window.StartMs, ar.Window.EndMs, roiJSON, ar.SeedChannel,
		ar.BootstrapReps, ar.Seed, ar.Status, ar.ErrorMessage, ar.Fingerprint,
		ar.CreatedAt.Time(), nullableTime(ar.StartedAt), nullableTime(ar.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// UpdateRun updates the mutable fields of a run
func (r *resultRepository) UpdateRun(ctx context.Context, ar *run.AnalysisRun) error {
	query := `UPDATE analysis_runs SET
		status = $2, error_message = $3, started_at = $4, finished_at = $5
	WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		ar.ID, ar.Status, ar.ErrorMessage, nullableTime(ar.StartedAt), nullableTime(ar.FinishedAt))
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return core.NewNotFoundError("run", ar.ID.String())
	}
	return nil
}

// GetRun retrieves a run by ID
func (r *resultRepository) GetRun(ctx context.Context, id core.RunID) (*run.AnalysisRun, error) {
	query := `SELECT
		id, recording_id, band_low_hz, band_high_hz, band_order,
		window_start_ms, window_end_ms, roi, seed_channel,
		bootstrap_reps, seed, status, error_message, fingerprint,
		created_at, started_at, finished_at
	FROM analysis_runs WHERE id = $1`

	ar, err := scanRun(r.db.QueryRowxContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("run", id.String())
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return ar, nil
}

// ListRuns pages over runs, newest first
func (r *resultRepository) ListRuns(ctx context.Context, limit, offset int) ([]*run.AnalysisRun, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT
		id, recording_id, band_low_hz, band_high_hz, band_order,
		window_start_ms, window_end_ms, roi, seed_channel,
		bootstrap_reps, seed, status, error_message, fingerprint,
		created_at, started_at, finished_at
	FROM analysis_runs ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryxContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*run.AnalysisRun
	for rows.Next() {
		ar, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, ar)
	}
	return runs, rows.Err()
}

// SaveResult stores the PLV output of a run as a JSON payload
func (r *resultRepository) SaveResult(ctx context.Context, id core.RunID, result *signal.PLVResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	query := `INSERT INTO plv_results (run_id, payload, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (run_id) DO UPDATE SET payload = EXCLUDED.payload`

	if _, err := r.db.ExecContext(ctx, query, id, payload); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// GetResult loads the PLV output of a run
func (r *resultRepository) GetResult(ctx context.Context, id core.RunID) (*signal.PLVResult, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM plv_results WHERE run_id = $1`, id).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("result", id.String())
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	var result signal.PLVResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// scanner abstracts Row and Rows for scanRun
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*run.AnalysisRun, error) {
	var ar run.AnalysisRun
	var roiJSON []byte
	var createdAt time.Time
	var startedAt, finishedAt sql.NullTime

	err := row.Scan(
		&ar.ID, &ar.RecordingID, &ar.Band.LowHz, &ar.Band.HighHz, &ar.Band.Order,
		&ar.Window.StartMs, &ar.Window.EndMs, &roiJSON, &ar.SeedChannel,
		&ar.BootstrapReps, &ar.Seed, &ar.Status, &ar.ErrorMessage, &ar.Fingerprint,
		&createdAt, &startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(roiJSON) > 0 {
		if err := json.Unmarshal(roiJSON, &ar.ROI); err != nil {
			return nil, fmt.Errorf("failed to unmarshal roi: %w", err)
		}
	}
	ar.CreatedAt = core.NewTimestamp(createdAt)
	if startedAt.Valid {
		ar.StartedAt = core.NewTimestamp(startedAt.Time)
	}
	if finishedAt.Valid {
		ar.FinishedAt = core.NewTimestamp(finishedAt.Time)
	}
	return &ar, nil
}

func nullableTime(t core.Timestamp) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Time()
}
