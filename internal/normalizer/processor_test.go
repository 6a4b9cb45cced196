package normalizer

import (
	"testing"
)

func TestNewProcessor(t *testing.T) {
	p := NewProcessor()
	if p == nil {
		t.Fatal("NewProcessor returned nil")
	}
}

func TestProcessor_Process(t *testing.T) {
	p := NewProcessor()

	result, err := p.Process(scenarioTable(
		[]string{"Germany", "Europe", "4,500", "2023"},
		[]string{"Somalia", "Africa", "—", "2023"},
	), scenarioColumns)
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	if result.Table.Len() != 1 {
		t.Errorf("Records = %d, want 1", result.Table.Len())
	}

	if len(result.Skipped) != 1 {
		t.Errorf("Skipped = %d, want 1", len(result.Skipped))
	}
}

func TestProcessor_Process_ValidationError(t *testing.T) {
	p := NewProcessor()

	// Every row is unconvertible, so nothing survives to be loaded
	result, err := p.Process(scenarioTable(
		[]string{"Somalia", "Africa", "—", "2023"},
	), scenarioColumns)
	if err == nil {
		t.Error("Process expected error for empty output")
	}

	if result != nil {
		t.Error("Process expected nil result for invalid output")
	}
}
