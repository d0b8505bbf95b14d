// Package runner executes a map/reduce job over a stream of text lines on a
// single machine. Map and Reduce are supplied by the caller; the runner owns
// batching, the partition-by-key shuffle, grouping and result delivery.
package runner

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"
)

// Mode selects how a job is executed.
type Mode string

const (
	// ModeInline runs everything on the calling goroutine.
	ModeInline Mode = "inline"
	// ModeLocal runs map and reduce tasks on a pool of goroutines.
	ModeLocal Mode = "local"
)

const defaultChunkSize = 4096

// ParseMode resolves a --runner flag value.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLocal:
		return ModeLocal, nil
	case ModeInline:
		return ModeInline, nil
	}
	return "", fmt.Errorf("unknown runner %q (want %q or %q)", s, ModeInline, ModeLocal)
}

// Job is a map function and a reduce function.
// Map returns ok=false to drop a line. Reduce is called once per distinct key.
type Job[K cmp.Ordered, V, O any] struct {
	Map    func(line string) (K, V, bool)
	Reduce func(key K, values iter.Seq[V]) []O
}

// Source streams input lines to fn until the input is exhausted, fn returns
// an error, or ctx is done.
type Source func(ctx context.Context, fn func(line string) error) error

// Config controls parallelism. Zero values pick defaults.
type Config struct {
	Mode       Mode
	Workers    int
	Partitions int
	ChunkSize  int
}

func (c Config) withDefaults() Config {
	if c.Mode == "" {
		c.Mode = ModeLocal
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Partitions <= 0 {
		c.Partitions = c.Workers
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}
	return c
}

// Stats are the runner's counters for one job.
type Stats struct {
	LinesRead     int64 `json:"lines_read" yaml:"lines_read"`
	MapOutputs    int64 `json:"map_outputs" yaml:"map_outputs"`
	Groups        int64 `json:"groups" yaml:"groups"`
	ReduceOutputs int64 `json:"reduce_outputs" yaml:"reduce_outputs"`
}

type counters struct {
	linesRead     atomic.Int64
	mapOutputs    atomic.Int64
	groups        atomic.Int64
	reduceOutputs atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		LinesRead:     c.linesRead.Load(),
		MapOutputs:    c.mapOutputs.Load(),
		Groups:        c.groups.Load(),
		ReduceOutputs: c.reduceOutputs.Load(),
	}
}

// Run executes job over src and hands every reduce output to emit.
// emit is never called concurrently. Output order across keys is unspecified;
// the order of one Reduce call's outputs is preserved.
func Run[K cmp.Ordered, V, O any](ctx context.Context, logger *slog.Logger, cfg Config, job Job[K, V, O], src Source, emit func(O) error) (Stats, error) {
	if job.Map == nil || job.Reduce == nil {
		return Stats{}, fmt.Errorf("job needs both a map and a reduce function")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg = cfg.withDefaults()

	switch cfg.Mode {
	case ModeInline:
		return runInline(ctx, logger, job, src, emit)
	case ModeLocal:
		return runLocal(ctx, logger, cfg, job, src, emit)
	}
	return Stats{}, fmt.Errorf("unknown runner %q", cfg.Mode)
}

func runInline[K cmp.Ordered, V, O any](ctx context.Context, logger *slog.Logger, job Job[K, V, O], src Source, emit func(O) error) (Stats, error) {
	var c counters
	groups := make(map[K][]V)

	logger.Info("Starting map phase", "runner", ModeInline)
	err := src(ctx, func(line string) error {
		c.linesRead.Add(1)
		k, v, ok := job.Map(line)
		if ok {
			c.mapOutputs.Add(1)
			groups[k] = append(groups[k], v)
		}
		return nil
	})
	if err != nil {
		return c.snapshot(), fmt.Errorf("map phase: %w", err)
	}

	logger.Info("Starting reduce phase", "runner", ModeInline, "groups", len(groups))
	for _, k := range slices.Sorted(maps.Keys(groups)) {
		if err := ctx.Err(); err != nil {
			return c.snapshot(), err
		}
		c.groups.Add(1)
		for _, o := range job.Reduce(k, slices.Values(groups[k])) {
			if err := emit(o); err != nil {
				return c.snapshot(), fmt.Errorf("emit: %w", err)
			}
			c.reduceOutputs.Add(1)
		}
		delete(groups, k)
	}

	return c.snapshot(), nil
}
