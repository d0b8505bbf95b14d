package manifest

import "github.com/dtnitsch/ngram-year-rank/pkg/runner"

// SummaryManifest represents the structure of the summary JSON file.
// It gives an overview of a run (inputs, counters, per-year totals and
// leading words) without reading the full ranking output.
type SummaryManifest struct {
	GeneratedAt     string        `json:"generated_at"`
	Runner          string        `json:"runner"`
	Format          string        `json:"format"`
	TopK            int           `json:"top_k"`
	RunID           int64         `json:"run_id,omitempty"` // sqlite output only
	Inputs          []string      `json:"inputs"`
	DurationSeconds float64       `json:"duration_seconds"`
	Stats           runner.Stats  `json:"stats"`
	Outputs         []OutputFile  `json:"outputs,omitempty"`
	Years           []YearSummary `json:"years"`
}

// OutputFile is a file written by the run.
type OutputFile struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
}

// YearSummary represents summary information for a single year.
type YearSummary struct {
	Year     int      `json:"year"`
	Total    int64    `json:"total"`
	Ranked   int      `json:"ranked"`
	TopWords []string `json:"top_words"` // "word:count", best first
}
