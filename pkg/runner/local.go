package runner

import (
	"cmp"
	"context"
	"fmt"
	"hash/maphash"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

// partitions holds one map worker's output, split by reduce partition.
type partitions[K comparable, V any] []map[K][]V

func runLocal[K cmp.Ordered, V, O any](ctx context.Context, logger *slog.Logger, cfg Config, job Job[K, V, O], src Source, emit func(O) error) (Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var c counters
	seed := maphash.MakeSeed()
	partitionOf := func(k K) int {
		return int(maphash.Comparable(seed, k) % uint64(cfg.Partitions))
	}

	// --- Map phase ---
	logger.Info("Starting map phase", "runner", ModeLocal, "workers", cfg.Workers, "partitions", cfg.Partitions, "chunk_size", cfg.ChunkSize)
	var wg sync.WaitGroup
	chunks := make(chan []string, cfg.Workers)
	outputs := make([]partitions[K, V], cfg.Workers)

	for w := 0; w < cfg.Workers; w++ {
		outputs[w] = make(partitions[K, V], cfg.Partitions)
		for p := range outputs[w] {
			outputs[w][p] = make(map[K][]V)
		}
		wg.Add(1)
		go mapWorker(w+1, logger, job, partitionOf, &wg, chunks, outputs[w], &c)
	}

	batch := make([]string, 0, cfg.ChunkSize)
	srcErr := src(ctx, func(line string) error {
		batch = append(batch, line)
		if len(batch) < cfg.ChunkSize {
			return nil
		}
		select {
		case chunks <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
		batch = make([]string, 0, cfg.ChunkSize)
		return nil
	})
	if srcErr == nil && len(batch) > 0 {
		select {
		case chunks <- batch:
		case <-ctx.Done():
			srcErr = ctx.Err()
		}
	}
	close(chunks)
	wg.Wait()
	logger.Info("All map workers finished", "lines_read", c.linesRead.Load(), "map_outputs", c.mapOutputs.Load())

	if srcErr != nil {
		return c.snapshot(), fmt.Errorf("map phase: %w", srcErr)
	}

	// --- Reduce phase ---
	logger.Info("Starting reduce phase", "runner", ModeLocal, "partitions", cfg.Partitions)
	results := make(chan []O, cfg.Partitions)
	var rwg sync.WaitGroup
	for p := 0; p < cfg.Partitions; p++ {
		rwg.Add(1)
		go reduceWorker(ctx, p, logger, job, outputs, &rwg, results, &c)
	}
	go func() {
		rwg.Wait()
		close(results)
	}()

	var emitErr error
	for out := range results {
		if emitErr != nil {
			continue
		}
		for _, o := range out {
			if err := emit(o); err != nil {
				emitErr = fmt.Errorf("emit: %w", err)
				cancel()
				break
			}
			c.reduceOutputs.Add(1)
		}
	}
	if emitErr != nil {
		return c.snapshot(), emitErr
	}
	if err := ctx.Err(); err != nil {
		return c.snapshot(), err
	}
	logger.Info("All reduce workers finished", "groups", c.groups.Load(), "reduce_outputs", c.reduceOutputs.Load())

	return c.snapshot(), nil
}

// mapWorker applies the map function to every line of every chunk it
// receives and files the outputs under their reduce partition.
func mapWorker[K cmp.Ordered, V, O any](id int, logger *slog.Logger, job Job[K, V, O], partitionOf func(K) int, wg *sync.WaitGroup, chunks <-chan []string, out partitions[K, V], c *counters) {
	defer wg.Done()
	var lines, emitted int64
	for chunk := range chunks {
		for _, line := range chunk {
			k, v, ok := job.Map(line)
			if !ok {
				continue
			}
			p := partitionOf(k)
			out[p][k] = append(out[p][k], v)
			emitted++
		}
		lines += int64(len(chunk))
		c.linesRead.Add(int64(len(chunk)))
	}
	c.mapOutputs.Add(emitted)
	logger.Debug("Map worker finished", "worker", id, "lines", lines, "outputs", emitted)
}

// reduceWorker merges partition p from every map worker, then reduces each
// key in ascending order. Values keep map worker order.
func reduceWorker[K cmp.Ordered, V, O any](ctx context.Context, p int, logger *slog.Logger, job Job[K, V, O], outputs []partitions[K, V], wg *sync.WaitGroup, results chan<- []O, c *counters) {
	defer wg.Done()

	groups := make(map[K][]V)
	for w := range outputs {
		for k, vs := range outputs[w][p] {
			groups[k] = append(groups[k], vs...)
		}
		outputs[w][p] = nil
	}

	for _, k := range slices.Sorted(maps.Keys(groups)) {
		out := job.Reduce(k, slices.Values(groups[k]))
		delete(groups, k)
		c.groups.Add(1)
		select {
		case results <- out:
		case <-ctx.Done():
			return
		}
	}
	logger.Debug("Reduce worker finished", "partition", p)
}
