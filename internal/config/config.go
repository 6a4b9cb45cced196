// Package config provides configuration management for the GDP ETL run.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the ETL looks for a configuration file.
const DefaultPath = "configs/etl.yaml"

// DefaultSourceURL is the archived Wikipedia page the GDP table is taken from.
const DefaultSourceURL = "https://web.archive.org/web/20230902185326/https://en.wikipedia.org/wiki/List_of_countries_by_GDP_%28nominal%29"

// Configuration validation errors.
var (
	ErrMissingSource       = errors.New("source.url or source.file is required")
	ErrInvalidTimeout      = errors.New("source.timeout_sec must be at least 1")
	ErrInvalidGDPUnit      = errors.New("source.gdp_unit must be one of: auto, million, billion, trillion")
	ErrMissingCSVPath      = errors.New("output.csv_path is required")
	ErrMissingDBPath       = errors.New("output.db_path is required")
	ErrInvalidTableName    = errors.New("output.table must be a plain SQL identifier")
	ErrMissingSkippedPath  = errors.New("output.skipped_path is required when advanced.save_failed_rows is set")
	ErrInvalidThreshold    = errors.New("query.threshold_billion must be non-negative")
	ErrInvalidLimit        = errors.New("query.limit must be non-negative")
	ErrInvalidLogLevel     = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidBufferSizeKb = errors.New("advanced.buffer_size_kb must be at least 1")
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var validUnits = map[string]bool{"auto": true, "million": true, "billion": true, "trillion": true}

// Config represents the complete ETL configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Output   OutputConfig   `yaml:"output"`
	Query    QueryConfig    `yaml:"query"`
	Logging  LoggingConfig  `yaml:"logging"`
	Advanced AdvancedConfig `yaml:"advanced"`
}

// SourceConfig describes where the GDP table comes from.
type SourceConfig struct {
	URL           string `yaml:"url"`
	File          string `yaml:"file"`
	UserAgent     string `yaml:"user_agent"`
	TableSelector string `yaml:"table_selector"`
	GDPUnit       string `yaml:"gdp_unit"`
	TimeoutSec    int    `yaml:"timeout_sec"`
}

// IsLocalFile returns true if this source uses a local file.
func (s *SourceConfig) IsLocalFile() bool {
	return s.File != ""
}

// GetSource returns the file path if local, or URL if remote.
func (s *SourceConfig) GetSource() string {
	if s.IsLocalFile() {
		return s.File
	}

	return s.URL
}

// GetTimeout returns the HTTP timeout duration.
func (s *SourceConfig) GetTimeout() time.Duration {
	return time.Duration(s.TimeoutSec) * time.Second
}

// OutputConfig defines where results are written.
type OutputConfig struct {
	CSVPath     string `yaml:"csv_path"`
	DBPath      string `yaml:"db_path"`
	Table       string `yaml:"table"`
	LogPath     string `yaml:"log_path"`
	ReportPath  string `yaml:"report_path"`
	SkippedPath string `yaml:"skipped_path"`
}

// QueryConfig defines the post-load filter query.
type QueryConfig struct {
	ThresholdBillion float64 `yaml:"threshold_billion"`
	Limit            int     `yaml:"limit"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level"`
	ShowProgress bool   `yaml:"show_progress"`
}

// AdvancedConfig contains advanced settings.
type AdvancedConfig struct {
	BufferSizeKb   int  `yaml:"buffer_size_kb"`
	SaveFailedRows bool `yaml:"save_failed_rows"`
}

// Default returns the built-in configuration used when no file is present.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			URL:           DefaultSourceURL,
			UserAgent:     "Mozilla/5.0 (compatible; gdpetl/1.0)",
			TableSelector: "table.wikitable",
			GDPUnit:       "auto",
			TimeoutSec:    30,
		},
		Output: OutputConfig{
			CSVPath:     "Countries_by_GDP.csv",
			DBPath:      "World_Economies.db",
			Table:       "Countries_by_GDP",
			LogPath:     "etl_project_log.txt",
			ReportPath:  "gdp_report.md",
			SkippedPath: "Countries_by_GDP_skipped.csv",
		},
		Query: QueryConfig{
			ThresholdBillion: 100,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ShowProgress: true,
		},
		Advanced: AdvancedConfig{
			BufferSizeKb: 8192,
		},
	}
}

// LoadConfig loads configuration from YAML file. Keys absent from the file
// keep their default values.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads the file at path when it exists and falls back to
// Default otherwise. The boolean reports whether the file was used.
func LoadOrDefault(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), false, nil
		}

		return nil, false, fmt.Errorf("failed to stat config file: %w", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, false, err
	}

	return cfg, true, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Source.URL == "" && c.Source.File == "" {
		return ErrMissingSource
	}

	if c.Source.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if !validUnits[c.Source.GDPUnit] {
		return fmt.Errorf("%w: %q", ErrInvalidGDPUnit, c.Source.GDPUnit)
	}

	if c.Output.CSVPath == "" {
		return ErrMissingCSVPath
	}

	if c.Output.DBPath == "" {
		return ErrMissingDBPath
	}

	if !identifierPattern.MatchString(c.Output.Table) {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, c.Output.Table)
	}

	if c.Advanced.SaveFailedRows && c.Output.SkippedPath == "" {
		return ErrMissingSkippedPath
	}

	if c.Query.ThresholdBillion < 0 {
		return ErrInvalidThreshold
	}

	if c.Query.Limit < 0 {
		return ErrInvalidLimit
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Advanced.BufferSizeKb < 1 {
		return ErrInvalidBufferSizeKb
	}

	return nil
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Source: %s, CSV: %s, DB: %s/%s, Threshold: %g}",
		c.Source.GetSource(),
		c.Output.CSVPath,
		c.Output.DBPath,
		c.Output.Table,
		c.Query.ThresholdBillion,
	)
}
