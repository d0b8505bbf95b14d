package run

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/dtnitsch/ngram-year-rank/models"
	"github.com/dtnitsch/ngram-year-rank/pkg/db"
	"github.com/dtnitsch/ngram-year-rank/pkg/runner"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func sqliteConfig(t *testing.T) (models.JobConfig, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := models.DefaultJobConfig()
	cfg.Inputs = []string{writeCorpus(t, dir, "1gram.tsv", corpus)}
	cfg.Format = models.FormatSQLite
	cfg.DBPath = filepath.Join(dir, "rank.db")
	return cfg, cfg.DBPath
}

func checkFailedRun(t *testing.T, dbPath string, runID int64) {
	t.Helper()
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer database.Close()

	run, err := database.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.Status != db.RunFailed {
		t.Errorf("status = %q, want %q", run.Status, db.RunFailed)
	}

	var n int
	if err := database.QueryRow("SELECT COUNT(*) FROM year_rankings WHERE run_id = ?", runID).Scan(&n); err != nil {
		t.Fatalf("query error = %v", err)
	}
	if n != 0 {
		t.Errorf("failed run left %d rankings, want 0", n)
	}
}

func TestRunJob_StdoutFailureDiscardsRankings(t *testing.T) {
	cfg, dbPath := sqliteConfig(t)
	logger := slog.New(slog.DiscardHandler)

	for _, mode := range []runner.Mode{runner.ModeInline, runner.ModeLocal} {
		t.Run(string(mode), func(t *testing.T) {
			outcome, err := runJob(context.Background(), logger, cfg, mode, failingWriter{})
			if err == nil {
				t.Fatal("runJob() succeeded, want error")
			}
			if outcome == nil || outcome.RunID == 0 {
				t.Fatalf("outcome = %+v, want a recorded run", outcome)
			}
			checkFailedRun(t, dbPath, outcome.RunID)
		})
	}
}

func TestRunJob_CanceledDiscardsRankings(t *testing.T) {
	cfg, dbPath := sqliteConfig(t)
	cfg.NoOutput = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := runJob(ctx, slog.New(slog.DiscardHandler), cfg, runner.ModeLocal, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("runJob() error = %v, want context.Canceled", err)
	}
	checkFailedRun(t, dbPath, outcome.RunID)
}
