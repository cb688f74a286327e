package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateLoadRun records the start of a pipeline execution.
func (s *Store) CreateLoadRun(ctx context.Context) (*LoadRun, error) {
	run := &LoadRun{
		ID:        uuid.New().String(),
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO load_runs (id, status, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create load run: %w", err)
	}
	return run, nil
}

// CompleteLoadRun marks a run finished with the given status.
func (s *Store) CompleteLoadRun(ctx context.Context, id, status, errMsg string) error {
	var errPtr *string
	if errMsg != "" {
		errPtr = &errMsg
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE load_runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		status, time.Now().UTC(), errPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete load run: %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("load run not found: %s", id)
	}
	return nil
}

// GetLoadRun retrieves a run by ID.
func (s *Store) GetLoadRun(ctx context.Context, id string) (*LoadRun, error) {
	run := &LoadRun{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, started_at, completed_at, error FROM load_runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.Status, &run.StartedAt, &completedAt, &errMsg)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("load run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get load run: %w", err)
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return run, nil
}

// RecordFileLoad records the outcome of one file within a run.
func (s *Store) RecordFileLoad(ctx context.Context, runID, sourceFile, status string, factRows int64, errMsg string) error {
	var errPtr *string
	if errMsg != "" {
		errPtr = &errMsg
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_loads (run_id, source_file, status, fact_rows, error, loaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, sourceFile, status, factRows, errPtr, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record file load: %w", err)
	}
	return nil
}

// ListFileLoads returns the per-file outcomes of a run in load order.
func (s *Store) ListFileLoads(ctx context.Context, runID string) ([]FileLoad, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, source_file, status, fact_rows, error, loaded_at
		 FROM file_loads WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list file loads: %w", err)
	}
	defer rows.Close()

	var loads []FileLoad
	for rows.Next() {
		var fl FileLoad
		var errMsg sql.NullString
		if err := rows.Scan(&fl.ID, &fl.RunID, &fl.SourceFile, &fl.Status, &fl.FactRows, &errMsg, &fl.LoadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file load: %w", err)
		}
		if errMsg.Valid {
			fl.Error = errMsg.String
		}
		loads = append(loads, fl)
	}
	return loads, rows.Err()
}
