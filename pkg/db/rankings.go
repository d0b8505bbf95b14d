package db

import (
	"database/sql"
	"fmt"

	"github.com/dtnitsch/ngram-year-rank/pkg/mapreduce"
)

// RankingWriter inserts ranked records for one run inside a single
// transaction. It satisfies sink.Sink; nothing is visible until Close commits.
type RankingWriter struct {
	runID int64
	tx    *sql.Tx
	stmt  *sql.Stmt
	err   error
	done  bool
}

// NewRankingWriter starts a transaction for writing the rankings of runID.
func (db *DB) NewRankingWriter(runID int64) (*RankingWriter, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO year_rankings (run_id, year, rank, word, count, year_total)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback() // Rollback error less important than prepare error
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}

	return &RankingWriter{runID: runID, tx: tx, stmt: stmt}, nil
}

// Write inserts one record. After a failure every later call returns the
// same error and Close rolls back.
func (w *RankingWriter) Write(r mapreduce.Ranked) error {
	if w.err != nil {
		return w.err
	}
	if _, err := w.stmt.Exec(w.runID, r.Year, r.Rank, r.Word, r.Count, r.YearTotal); err != nil {
		w.err = fmt.Errorf("failed to insert ranking %d/%d: %w", r.Year, r.Rank, err)
		return w.err
	}
	return nil
}

// Abort rolls back everything written so far. Close after Abort does nothing.
func (w *RankingWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	_ = w.stmt.Close()
	if err := w.tx.Rollback(); err != nil {
		return fmt.Errorf("failed to roll back rankings: %w", err)
	}
	return nil
}

// Close commits the transaction, or rolls it back if a Write failed.
func (w *RankingWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	_ = w.stmt.Close()
	if w.err != nil {
		_ = w.tx.Rollback()
		return w.err
	}
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rankings: %w", err)
	}
	return nil
}
