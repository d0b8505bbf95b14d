package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/dtnitsch/ngram-year-rank/pkg/runner"
)

// Run statuses.
const (
	RunRunning  = "running"
	RunComplete = "complete"
	RunFailed   = "failed"
)

// Run represents one ranking job recorded in the database.
type Run struct {
	RunID       int64
	CreatedAt   time.Time
	FinishedAt  *time.Time
	Status      string
	Runner      string
	TopK        int
	Inputs      []string
	LinesRead   int64
	MapOutputs  int64
	YearCount   int64
	RecordCount int64
}

// CreateRun records the start of a job and returns its run_id.
func (db *DB) CreateRun(runnerMode string, topK int, inputs []string) (int64, error) {
	inputsJSON, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(inputs)
	if err != nil {
		return 0, fmt.Errorf("failed to encode inputs: %w", err)
	}

	result, err := db.Exec(`
		INSERT INTO runs (runner, top_k, inputs)
		VALUES (?, ?, ?)
	`, runnerMode, topK, inputsJSON)
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}
	return runID, nil
}

// FinishRun stores the runner's counters and final status for a run.
func (db *DB) FinishRun(runID int64, status string, stats runner.Stats) error {
	result, err := db.Exec(`
		UPDATE runs
		SET status = ?, finished_at = CURRENT_TIMESTAMP,
		    lines_read = ?, map_outputs = ?, year_count = ?, record_count = ?
		WHERE run_id = ?
	`, status, stats.LinesRead, stats.MapOutputs, stats.Groups, stats.ReduceOutputs, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %d not found", runID)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (db *DB) GetRun(runID int64) (*Run, error) {
	var r Run
	var inputsJSON string
	var finishedAt sql.NullTime

	err := db.QueryRow(`
		SELECT run_id, created_at, finished_at, status, runner, top_k, inputs,
		       lines_read, map_outputs, year_count, record_count
		FROM runs
		WHERE run_id = ?
	`, runID).Scan(&r.RunID, &r.CreatedAt, &finishedAt, &r.Status, &r.Runner, &r.TopK, &inputsJSON,
		&r.LinesRead, &r.MapOutputs, &r.YearCount, &r.RecordCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if finishedAt.Valid {
		r.FinishedAt = &finishedAt.Time
	}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(inputsJSON, &r.Inputs); err != nil {
		return nil, fmt.Errorf("failed to decode run inputs: %w", err)
	}
	return &r, nil
}
