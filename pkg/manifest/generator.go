package manifest

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/dtnitsch/ngram-year-rank/pkg/mapreduce"
	"github.com/dtnitsch/ngram-year-rank/pkg/storage"
)

// SummaryFileName is the manifest written into the output directory.
const SummaryFileName = "summary.json"

// previewWords is how many leading words each YearSummary lists.
const previewWords = 5

// Collector watches ranked records on their way to the real sinks and
// keeps what the manifest needs. It satisfies sink.Sink.
type Collector struct {
	years map[int]*yearState
}

type yearState struct {
	total   int64
	ranked  int
	leading []mapreduce.Ranked
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{years: make(map[int]*yearState)}
}

func (c *Collector) Write(r mapreduce.Ranked) error {
	y, ok := c.years[r.Year]
	if !ok {
		y = &yearState{total: r.YearTotal}
		c.years[r.Year] = y
	}
	y.ranked++
	if len(y.leading) < previewWords {
		y.leading = append(y.leading, r)
	}
	return nil
}

func (c *Collector) Close() error { return nil }

// Years returns one summary per year seen, years ascending.
func (c *Collector) Years() []YearSummary {
	out := make([]YearSummary, 0, len(c.years))
	for year, y := range c.years {
		out = append(out, YearSummary{
			Year:     year,
			Total:    y.total,
			Ranked:   y.ranked,
			TopWords: topWords(y.leading, previewWords),
		})
	}
	slices.SortFunc(out, func(a, b YearSummary) int { return a.Year - b.Year })
	return out
}

// topWords formats the first n records as "word:count" strings
// (e.g., "the:1153"). Records are expected to already be in rank order.
func topWords(records []mapreduce.Ranked, n int) []string {
	limit := max(min(n, len(records)), 0)
	words := make([]string, limit)
	for i, r := range records[:limit] {
		words[i] = fmt.Sprintf("%s:%d", r.Word, r.Count)
	}
	return words
}

// GenerateSummary fills in the generated timestamp, output file sizes and
// per-year data from c, then writes the manifest into dir.
// Returns the path to the generated manifest file and any error.
func GenerateSummary(m SummaryManifest, c *Collector, outputPaths []string, dir string, s *storage.Storage) (string, error) {
	m.GeneratedAt = time.Now().Format(time.RFC3339)
	if c != nil {
		m.Years = c.Years()
	}

	for _, p := range outputPaths {
		out := OutputFile{Path: p}
		if stats, err := s.GetFileStats(p); err == nil {
			out.SizeBytes = stats.SizeBytes
		}
		m.Outputs = append(m.Outputs, out)
	}

	manifestPath := filepath.Join(dir, SummaryFileName)
	manifestData, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error marshalling manifest: %w", err)
	}

	if err := s.SaveFile(manifestPath, manifestData); err != nil {
		return "", fmt.Errorf("error saving manifest: %w", err)
	}

	return manifestPath, nil
}
