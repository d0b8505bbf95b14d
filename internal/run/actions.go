package run

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dtnitsch/ngram-year-rank/internal/common"
	"github.com/dtnitsch/ngram-year-rank/models"
	"github.com/dtnitsch/ngram-year-rank/pkg/runner"
	"github.com/urfave/cli/v2"
)

// Command returns the "run" subcommand.
func Command() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Rank the most frequent words of each year in a 1-gram corpus",
		ArgsUsage: "INPUT...",
		Description: "Reads tab-delimited 1-gram files (word, year, match_count, ...), plain or gzipped,\n" +
			"and emits the top words of every year with their counts and the year's total count.\n" +
			"INPUT may be a file, a directory, a glob, an http(s) URL, or - for stdin.",
		Flags:  Flags(),
		Action: RunAction,
	}
}

// Flags are the flags of the run command.
func Flags() []cli.Flag {
	def := models.DefaultJobConfig()
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML job file; flags override its values"},
		&cli.StringFlag{Name: "runner", Aliases: []string{"r"}, Value: def.Runner, Usage: "execution mode: inline or local"},
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "map workers (default: number of CPUs)"},
		&cli.IntFlag{Name: "partitions", Usage: "reduce partitions (default: number of workers)"},
		&cli.IntFlag{Name: "chunk-size", Usage: "lines handed to a map worker at a time (default 4096)"},
		&cli.IntFlag{Name: "top", Aliases: []string{"k"}, Value: def.TopK, Usage: "words kept per year"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: string(def.Format), Usage: "output format: text, tsv, jsonl, yaml or sqlite"},
		&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "write part file (or rankings.db) and summary.json here"},
		&cli.StringFlag{Name: "db", Usage: "sqlite database path for --format sqlite (default OUTPUT-DIR/rankings.db)"},
		&cli.BoolFlag{Name: "no-output", Usage: "don't stream records to stdout"},
		&cli.StringFlag{Name: "cache-dir", Usage: "where downloaded http(s) inputs are kept (default: user cache dir)"},
		&cli.DurationFlag{Name: "max-age", Value: def.MaxAge, Usage: "reuse downloaded inputs younger than this"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log debug detail"},
	}
}

// RunAction validates the resolved job configuration and runs the ranking job.
func RunAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := resolveConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %s", err), 1)
	}

	if len(cfg.Inputs) == 0 {
		var sb strings.Builder
		fmt.Fprintln(&sb, "Error: No inputs provided")
		fmt.Fprintln(&sb, "")
		fmt.Fprintln(&sb, "Usage:")
		fmt.Fprintln(&sb, "  ngram-year-rank run googlebooks-eng-all-1gram-20120701-x.gz")
		fmt.Fprintln(&sb, "  ngram-year-rank run -o results --no-output corpus/")
		fmt.Fprintln(&sb, "")
		fmt.Fprint(&sb, "Need help? Run: ngram-year-rank run --help")
		return cli.Exit(sb.String(), 1)
	}

	// Sanitize and validate all inputs before processing (fail fast)
	sanitized, invalid := common.SanitizeAndValidatePaths(cfg.Inputs)
	if len(invalid) > 0 {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Error: %d input(s) cannot be read:\n", len(invalid))
		for _, bad := range invalid {
			fmt.Fprintf(&sb, "  - %q\n", bad)
		}
		fmt.Fprint(&sb, "Note: inputs must exist, globs must match, URLs need a host, and - may appear once.")
		return cli.Exit(sb.String(), 1)
	}
	cfg.Inputs = sanitized

	mode, err := runner.ParseMode(cfg.Runner)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %s", err), 1)
	}
	format, err := models.ParseOutputFormat(string(cfg.Format))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %s", err), 1)
	}
	cfg.Format = format
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %s", err), 1)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting ranking job", "runner", mode, "format", cfg.Format, "top", cfg.TopK, "inputs", len(cfg.Inputs), "output_dir", cfg.OutputDir)
	outcome, err := runJob(ctx, logger, cfg, mode, c.App.Writer)
	if err != nil {
		logger.Error("Ranking job failed", "error", err)
		return cli.Exit(fmt.Sprintf("Error: %s", err), 2)
	}

	logger.Info("Ranking job finished",
		"lines_read", outcome.Stats.LinesRead,
		"candidates", outcome.Stats.MapOutputs,
		"years", outcome.Stats.Groups,
		"records", outcome.Stats.ReduceOutputs,
		"duration_seconds", outcome.Duration.Seconds(),
		"manifest", outcome.ManifestPath,
	)
	return nil
}

// resolveConfig layers defaults, the optional --config file, explicitly set
// flags and positional inputs, in that order.
func resolveConfig(c *cli.Context) (models.JobConfig, error) {
	cfg := models.DefaultJobConfig()
	if c.IsSet("config") {
		loaded, err := models.LoadConfig(c.String("config"))
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet("runner") {
		cfg.Runner = c.String("runner")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("partitions") {
		cfg.Partitions = c.Int("partitions")
	}
	if c.IsSet("chunk-size") {
		cfg.ChunkSize = c.Int("chunk-size")
	}
	if c.IsSet("top") {
		cfg.TopK = c.Int("top")
	}
	if c.IsSet("format") {
		cfg.Format = models.OutputFormat(c.String("format"))
	}
	if c.IsSet("output-dir") {
		cfg.OutputDir = c.String("output-dir")
	}
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	if c.IsSet("no-output") {
		cfg.NoOutput = c.Bool("no-output")
	}
	if c.IsSet("cache-dir") {
		cfg.CacheDir = c.String("cache-dir")
	}
	if c.IsSet("max-age") {
		cfg.MaxAge = c.Duration("max-age")
	}

	if c.NArg() > 0 {
		cfg.Inputs = c.Args().Slice()
	}
	return cfg, nil
}
