package run

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/dtnitsch/ngram-year-rank/models"
	"github.com/dtnitsch/ngram-year-rank/pkg/caching"
	"github.com/dtnitsch/ngram-year-rank/pkg/db"
	"github.com/dtnitsch/ngram-year-rank/pkg/fetcher"
	"github.com/dtnitsch/ngram-year-rank/pkg/input"
	"github.com/dtnitsch/ngram-year-rank/pkg/manifest"
	"github.com/dtnitsch/ngram-year-rank/pkg/mapreduce"
	"github.com/dtnitsch/ngram-year-rank/pkg/runner"
	"github.com/dtnitsch/ngram-year-rank/pkg/sink"
	"github.com/dtnitsch/ngram-year-rank/pkg/storage"
)

const (
	partFileName = "part-00000"
	dbFileName   = "rankings.db"
)

// Outcome describes a finished job.
type Outcome struct {
	Stats        runner.Stats
	Outputs      []string
	RunID        int64
	ManifestPath string
	Duration     time.Duration
}

// outputs bundles every sink of a job and the resources behind them.
// The sqlite rankings sit outside sinks and are committed last.
type outputs struct {
	sinks     sink.Multi
	collector *manifest.Collector
	files     []*os.File
	paths     []string
	database  *db.DB
	rankings  *db.RankingWriter
	runID     int64
}

func (o *outputs) write(r mapreduce.Ranked) error {
	if err := o.sinks.Write(r); err != nil {
		return err
	}
	if o.rankings != nil {
		return o.rankings.Write(r)
	}
	return nil
}

// close flushes the stream sinks and their files first. The database
// rankings are committed only if that worked and failed is not set;
// otherwise they are rolled back.
func (o *outputs) close(failed bool) error {
	err := o.sinks.Close()
	for _, f := range o.files {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", f.Name(), cerr)
		}
	}
	if o.rankings == nil {
		return err
	}
	if failed || err != nil {
		if aerr := o.rankings.Abort(); aerr != nil && err == nil {
			err = aerr
		}
		return err
	}
	return o.rankings.Close()
}

// runJob ranks cfg.Inputs (already sanitized and validated) and writes the
// results to stdout and/or cfg.OutputDir according to cfg.
func runJob(ctx context.Context, logger *slog.Logger, cfg models.JobConfig, mode runner.Mode, stdout io.Writer) (*Outcome, error) {
	startTime := time.Now()
	s := &storage.Storage{}

	files, err := input.Expand(cfg.Inputs)
	if err != nil {
		return nil, err
	}
	logger.Info("Inputs resolved", "inputs", len(cfg.Inputs), "files", len(files))

	var f *fetcher.Fetcher
	if slices.ContainsFunc(files, fetcher.IsRemote) {
		f, err = newFetcher(cfg)
		if err != nil {
			return nil, err
		}
	}
	reader := input.NewReader(files, f, logger)

	out, err := openOutputs(logger, cfg, mode, stdout, s)
	if err != nil {
		return nil, err
	}
	if out.database != nil {
		defer out.database.Close()
	}

	job := runner.Job[int, mapreduce.WordCount, mapreduce.Ranked]{
		Map:    mapreduce.Map,
		Reduce: mapreduce.Reducer(cfg.TopK),
	}
	runCfg := runner.Config{
		Mode:       mode,
		Workers:    cfg.Workers,
		Partitions: cfg.Partitions,
		ChunkSize:  cfg.ChunkSize,
	}
	stats, runErr := runner.Run(ctx, logger, runCfg, job, reader.Each, out.write)
	closeErr := out.close(runErr != nil)

	outcome := &Outcome{
		Stats:    stats,
		Outputs:  out.paths,
		RunID:    out.runID,
		Duration: time.Since(startTime),
	}

	if out.database != nil {
		status := db.RunComplete
		if runErr != nil || closeErr != nil {
			status = db.RunFailed
		}
		if err := out.database.FinishRun(out.runID, status, stats); err != nil {
			logger.Error("Failed to record run status", "run_id", out.runID, "error", err)
		}
	}

	if runErr != nil {
		return outcome, runErr
	}
	if closeErr != nil {
		return outcome, fmt.Errorf("failed to flush output: %w", closeErr)
	}

	if cfg.OutputDir != "" {
		m := manifest.SummaryManifest{
			Runner:          string(mode),
			Format:          string(cfg.Format),
			TopK:            cfg.TopK,
			RunID:           out.runID,
			Inputs:          files,
			DurationSeconds: outcome.Duration.Seconds(),
			Stats:           stats,
		}
		path, err := manifest.GenerateSummary(m, out.collector, out.paths, cfg.OutputDir, s)
		if err != nil {
			return outcome, err
		}
		outcome.ManifestPath = path
	}

	return outcome, nil
}

func newFetcher(cfg models.JobConfig) (*fetcher.Fetcher, error) {
	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate cache directory: %w", err)
		}
		cacheDir = filepath.Join(base, "ngram-year-rank")
	}
	cache, err := caching.NewCache(cacheDir, cfg.MaxAge)
	if err != nil {
		return nil, err
	}
	return fetcher.NewFetcher(cache), nil
}

// openOutputs builds the sinks for cfg: stdout unless NoOutput, a part file
// or sqlite database under OutputDir, and always the manifest collector.
func openOutputs(logger *slog.Logger, cfg models.JobConfig, mode runner.Mode, stdout io.Writer, s *storage.Storage) (*outputs, error) {
	out := &outputs{collector: manifest.NewCollector()}
	out.sinks = append(out.sinks, out.collector)

	fail := func(err error) (*outputs, error) {
		_ = out.close(true)
		if out.database != nil {
			_ = out.database.Close()
		}
		return nil, err
	}

	if !cfg.NoOutput {
		// sqlite is not a stream; stdout falls back to the text protocol.
		stdoutFormat := cfg.Format
		if !stdoutFormat.Streamable() {
			stdoutFormat = models.FormatText
		}
		sk, err := sink.New(stdoutFormat, stdout)
		if err != nil {
			return fail(err)
		}
		out.sinks = append(out.sinks, sk)
	}

	switch {
	case cfg.Format == models.FormatSQLite:
		dbPath := cfg.DBPath
		if dbPath == "" {
			dbPath = filepath.Join(cfg.OutputDir, dbFileName)
		}
		database, err := db.Open(dbPath)
		if err != nil {
			return fail(fmt.Errorf("failed to open database: %w", err))
		}
		out.database = database

		runID, err := database.CreateRun(string(mode), cfg.TopK, cfg.Inputs)
		if err != nil {
			return fail(err)
		}
		out.runID = runID

		w, err := database.NewRankingWriter(runID)
		if err != nil {
			return fail(err)
		}
		out.rankings = w
		out.paths = append(out.paths, database.Path())
		logger.Info("Writing rankings to database", "path", database.Path(), "run_id", runID)

	case cfg.OutputDir != "":
		partPath := filepath.Join(cfg.OutputDir, partFileName+cfg.Format.Extension())
		file, err := s.Create(partPath)
		if err != nil {
			return fail(err)
		}
		out.files = append(out.files, file)

		sk, err := sink.New(cfg.Format, file)
		if err != nil {
			return fail(err)
		}
		out.sinks = append(out.sinks, sk)
		out.paths = append(out.paths, partPath)
		logger.Info("Writing rankings to file", "path", partPath, "format", cfg.Format)
	}

	return out, nil
}
