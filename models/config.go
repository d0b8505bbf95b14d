// Package models defines data structures for job configuration and output formats.
package models

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// JobConfig holds runtime configuration for one ranking job.
// Values come from an optional YAML file, then CLI flags override them.
type JobConfig struct {
	Inputs     []string      `yaml:"inputs"`
	Runner     string        `yaml:"runner"`
	Workers    int           `yaml:"workers"`
	Partitions int           `yaml:"partitions"`
	ChunkSize  int           `yaml:"chunk_size"`
	TopK       int           `yaml:"top"`
	Format     OutputFormat  `yaml:"format"`
	OutputDir  string        `yaml:"output_dir"`
	DBPath     string        `yaml:"db"`
	NoOutput   bool          `yaml:"no_output"`
	CacheDir   string        `yaml:"cache_dir"`
	MaxAge     time.Duration `yaml:"max_age"`
}

// DefaultJobConfig returns the configuration used when nothing is set.
func DefaultJobConfig() JobConfig {
	return JobConfig{
		Runner: "local",
		TopK:   100,
		Format: FormatText,
		MaxAge: 30 * 24 * time.Hour,
	}
}

// LoadConfig reads a YAML job file on top of DefaultJobConfig.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func LoadConfig(path string) (JobConfig, error) {
	cfg := DefaultJobConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that flags and files cannot constrain on their own.
func (c JobConfig) Validate() error {
	if len(c.Inputs) == 0 {
		return errors.New("no inputs provided")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top must be positive, got %d", c.TopK)
	}
	if c.Workers < 0 || c.Partitions < 0 || c.ChunkSize < 0 {
		return errors.New("workers, partitions and chunk_size must not be negative")
	}
	if _, err := ParseOutputFormat(string(c.Format)); err != nil {
		return err
	}
	if c.Format == FormatSQLite && c.OutputDir == "" && c.DBPath == "" {
		return errors.New("sqlite output needs --output-dir or --db")
	}
	if c.NoOutput && c.OutputDir == "" && c.Format != FormatSQLite {
		return errors.New("--no-output without --output-dir would discard every record")
	}
	return nil
}
