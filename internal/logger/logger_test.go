package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriterLogger_Levels(t *testing.T) {
	var buf bytes.Buffer

	log := NewWriterLogger("warn", &buf)
	log.Info("hidden")
	log.Warn("shown", "rows", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "rows=3")
}

func TestWith_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer

	log := NewWriterLogger("debug", &buf).With("stage", "fetch")
	log.Debug("started")

	assert.Contains(t, buf.String(), "stage=fetch")
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etl.log")

	log, err := NewFileLogger("info", path)
	require.NoError(t, err)

	log.Info("ETL job started")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ETL job started")
}

func TestNewFileLogger_BadPath(t *testing.T) {
	_, err := NewFileLogger("info", filepath.Join(t.TempDir(), "missing", "etl.log"))
	require.Error(t, err)
}
