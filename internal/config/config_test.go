package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "etl.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

const validConfigYAML = `
source:
  url: "http://example.com/gdp.html"
  timeout_sec: 10
  gdp_unit: "million"
output:
  csv_path: "./out/gdp.csv"
  db_path: "./out/gdp.db"
  table: "gdp"
query:
  threshold_billion: 250
logging:
  level: "debug"
advanced:
  save_failed_rows: true
`

func TestLoadConfig_Valid(t *testing.T) {
	configPath := createTempConfigFile(t, validConfigYAML)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Source.URL != "http://example.com/gdp.html" {
		t.Errorf("Expected URL from file, got '%s'", cfg.Source.URL)
	}

	if cfg.Source.GetTimeout() != 10*time.Second {
		t.Errorf("Expected timeout 10s, got %v", cfg.Source.GetTimeout())
	}

	if cfg.Output.Table != "gdp" {
		t.Errorf("Expected table 'gdp', got '%s'", cfg.Output.Table)
	}

	if cfg.Query.ThresholdBillion != 250 {
		t.Errorf("Expected threshold 250, got %g", cfg.Query.ThresholdBillion)
	}

	// Keys missing from the file keep their defaults
	if cfg.Source.TableSelector != "table.wikitable" {
		t.Errorf("Expected default selector, got '%s'", cfg.Source.TableSelector)
	}

	if cfg.Output.SkippedPath == "" {
		t.Error("Expected default skipped path to survive partial YAML")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/etl.yaml")
	if err == nil {
		t.Fatal("Expected error for missing file, got nil")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := createTempConfigFile(t, "source: [unclosed")

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}

	if !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, used, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}

	if used {
		t.Error("Expected defaults when file is absent")
	}

	if cfg.Source.URL != DefaultSourceURL {
		t.Errorf("Expected default URL, got %s", cfg.Source.URL)
	}

	cfg, used, err = LoadOrDefault(createTempConfigFile(t, validConfigYAML))
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}

	if !used || cfg.Output.Table != "gdp" {
		t.Errorf("Expected file config to be used, got used=%v table=%s", used, cfg.Output.Table)
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config is invalid: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"no source", func(c *Config) { c.Source.URL = "" }, ErrMissingSource},
		{"zero timeout", func(c *Config) { c.Source.TimeoutSec = 0 }, ErrInvalidTimeout},
		{"bad unit", func(c *Config) { c.Source.GDPUnit = "crore" }, ErrInvalidGDPUnit},
		{"no csv", func(c *Config) { c.Output.CSVPath = "" }, ErrMissingCSVPath},
		{"no db", func(c *Config) { c.Output.DBPath = "" }, ErrMissingDBPath},
		{"table injection", func(c *Config) { c.Output.Table = "gdp; DROP TABLE x" }, ErrInvalidTableName},
		{"skipped path", func(c *Config) {
			c.Advanced.SaveFailedRows = true
			c.Output.SkippedPath = ""
		}, ErrMissingSkippedPath},
		{"negative threshold", func(c *Config) { c.Query.ThresholdBillion = -1 }, ErrInvalidThreshold},
		{"negative limit", func(c *Config) { c.Query.Limit = -5 }, ErrInvalidLimit},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, ErrInvalidLogLevel},
		{"zero buffer", func(c *Config) { c.Advanced.BufferSizeKb = 0 }, ErrInvalidBufferSizeKb},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSourceConfig_GetSource(t *testing.T) {
	src := SourceConfig{URL: "http://example.com", File: "snapshot.html"}
	if !src.IsLocalFile() || src.GetSource() != "snapshot.html" {
		t.Errorf("Expected local file to win, got %s", src.GetSource())
	}

	src.File = ""
	if src.IsLocalFile() || src.GetSource() != "http://example.com" {
		t.Errorf("Expected URL, got %s", src.GetSource())
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")

	cfg := Default()
	cfg.Query.ThresholdBillion = 500

	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.Query.ThresholdBillion != 500 {
		t.Errorf("Expected threshold 500, got %g", loaded.Query.ThresholdBillion)
	}
}

func TestConfig_String(t *testing.T) {
	s := Default().String()
	if !strings.Contains(s, "Countries_by_GDP") {
		t.Errorf("String() = %s, want table name", s)
	}
}

func TestLoadConfig_ShippedFileMatchesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", DefaultPath))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.String() != Default().String() {
		t.Errorf("Shipped config drifted from defaults:\n%s\n%s", cfg, Default())
	}

	if cfg.Source.UserAgent != Default().Source.UserAgent || cfg.Advanced.BufferSizeKb != Default().Advanced.BufferSizeKb {
		t.Errorf("Shipped config drifted from defaults: %+v", cfg)
	}
}
