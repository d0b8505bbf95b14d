package models

import (
	"fmt"
	"strings"
)

// OutputFormat selects how ranked records are serialized.
type OutputFormat string

const (
	// FormatText writes year<TAB>["word",count,year_total], one record per line.
	FormatText   OutputFormat = "text"
	FormatTSV    OutputFormat = "tsv"   // year, word, count, year_total columns
	FormatJSONL  OutputFormat = "jsonl" // one JSON object per line
	FormatYAML   OutputFormat = "yaml"  // records grouped by year
	FormatSQLite OutputFormat = "sqlite"
)

// OutputFormats lists every supported format, default first.
var OutputFormats = []OutputFormat{FormatText, FormatTSV, FormatJSONL, FormatYAML, FormatSQLite}

// ParseOutputFormat resolves a --format flag value. Empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatText, nil
	}
	for _, f := range OutputFormats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Extension is the file extension used for part files of this format.
func (f OutputFormat) Extension() string {
	switch f {
	case FormatTSV:
		return ".tsv"
	case FormatJSONL:
		return ".jsonl"
	case FormatYAML:
		return ".yaml"
	case FormatSQLite:
		return ".db"
	}
	return ".txt"
}

// Streamable reports whether the format can be written to stdout.
func (f OutputFormat) Streamable() bool {
	return f != FormatSQLite
}
