// Package normalizer turns a located HTML table into the GDP schema.
package normalizer

import (
	"fmt"

	"gdpetl/internal/locator"
	"gdpetl/internal/models"
)

// Result is the transformed table together with the rows that were dropped.
type Result struct {
	Table   *models.GDPTable
	Skipped []models.SkippedRow
}

// Processor handles data processing and transformation.
type Processor struct {
	validator   *Validator
	transformer *Transformer
}

// NewProcessor creates a new processor instance that detects the GDP unit.
func NewProcessor() *Processor {
	return NewProcessorWithTransformer(NewTransformer())
}

// NewProcessorWithTransformer creates a processor around a configured transformer.
func NewProcessorWithTransformer(transformer *Transformer) *Processor {
	return &Processor{
		validator:   NewValidator(),
		transformer: transformer,
	}
}

// Process transforms the candidate table and validates the result.
func (p *Processor) Process(table *models.CandidateTable, columns locator.ColumnMap) (*Result, error) {
	// 1. Transform the rows
	gdp, skipped, err := p.transformer.Transform(table, columns)
	if err != nil {
		return nil, fmt.Errorf("transformation failed: %w", err)
	}

	// 2. Validate the output invariants
	if err := p.validator.Validate(gdp); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &Result{Table: gdp, Skipped: skipped}, nil
}
