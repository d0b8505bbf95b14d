package models

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
inputs:
  - googlebooks-eng-all-1gram-20120701-x.gz
runner: inline
workers: 3
top: 25
format: jsonl
output_dir: out
max_age: 48h
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if !slices.Equal(cfg.Inputs, []string{"googlebooks-eng-all-1gram-20120701-x.gz"}) {
		t.Errorf("Inputs = %v", cfg.Inputs)
	}
	if cfg.Runner != "inline" || cfg.Workers != 3 || cfg.TopK != 25 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Format != FormatJSONL || cfg.OutputDir != "out" {
		t.Errorf("Format = %q, OutputDir = %q", cfg.Format, cfg.OutputDir)
	}
	if cfg.MaxAge != 48*time.Hour {
		t.Errorf("MaxAge = %v, want 48h", cfg.MaxAge)
	}
}

func TestLoadConfig_DefaultsForMissingKeys(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "workers: 2\n"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	def := DefaultJobConfig()
	if cfg.TopK != def.TopK || cfg.Format != def.Format || cfg.Runner != def.Runner {
		t.Errorf("defaults not kept: %+v", cfg)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.TopK != 100 {
		t.Errorf("TopK = %d, want 100", cfg.TopK)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig() on missing file succeeded, want error")
	}
	if _, err := LoadConfig(writeConfig(t, "topk: 5\n")); err == nil {
		t.Error("LoadConfig() with unknown key succeeded, want error")
	}
	if _, err := LoadConfig(writeConfig(t, "workers: [1, 2]\n")); err == nil {
		t.Error("LoadConfig() with wrong type succeeded, want error")
	}
}

func TestJobConfigValidate(t *testing.T) {
	valid := DefaultJobConfig()
	valid.Inputs = []string{"in.tsv"}

	tests := []struct {
		name    string
		mutate  func(c *JobConfig)
		wantErr bool
	}{
		{name: "defaults with input", mutate: func(c *JobConfig) {}},
		{name: "no inputs", mutate: func(c *JobConfig) { c.Inputs = nil }, wantErr: true},
		{name: "zero top", mutate: func(c *JobConfig) { c.TopK = 0 }, wantErr: true},
		{name: "negative workers", mutate: func(c *JobConfig) { c.Workers = -1 }, wantErr: true},
		{name: "unknown format", mutate: func(c *JobConfig) { c.Format = "csv" }, wantErr: true},
		{name: "sqlite without destination", mutate: func(c *JobConfig) { c.Format = FormatSQLite }, wantErr: true},
		{name: "sqlite with db path", mutate: func(c *JobConfig) { c.Format = FormatSQLite; c.DBPath = "x.db" }},
		{name: "no output and no output dir", mutate: func(c *JobConfig) { c.NoOutput = true }, wantErr: true},
		{name: "no output with output dir", mutate: func(c *JobConfig) { c.NoOutput = true; c.OutputDir = "out" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			cfg.Inputs = slices.Clone(valid.Inputs)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantExt string
		wantErr bool
	}{
		{in: "", want: FormatText, wantExt: ".txt"},
		{in: "TSV", want: FormatTSV, wantExt: ".tsv"},
		{in: "jsonl", want: FormatJSONL, wantExt: ".jsonl"},
		{in: " yaml ", want: FormatYAML, wantExt: ".yaml"},
		{in: "sqlite", want: FormatSQLite, wantExt: ".db"},
		{in: "csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if !tt.wantErr && got.Extension() != tt.wantExt {
				t.Errorf("Extension() = %q, want %q", got.Extension(), tt.wantExt)
			}
		})
	}

	if FormatSQLite.Streamable() || !FormatText.Streamable() {
		t.Error("only sqlite should be non-streamable")
	}
}
