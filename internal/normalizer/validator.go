package normalizer

import (
	"errors"
	"fmt"
	"math"

	"gdpetl/internal/models"
)

// Validation errors.
var (
	ErrNilTable         = errors.New("gdp table is nil")
	ErrNoRecords        = errors.New("gdp table contains no records")
	ErrMissingCountry   = errors.New("record missing country")
	ErrDuplicateCountry = errors.New("duplicate country")
	ErrInvalidGDP       = errors.New("gdp estimate must be a non-negative number")
)

// Validator checks the invariants of a transformed table before it is loaded.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks that every record has a unique, non-empty country and a
// non-negative GDP estimate.
func (v *Validator) Validate(table *models.GDPTable) error {
	if table == nil {
		return ErrNilTable
	}

	if len(table.Records) == 0 {
		return ErrNoRecords
	}

	seen := make(map[string]int, len(table.Records))

	for i, rec := range table.Records {
		if rec.Country == "" {
			return fmt.Errorf("%w at index %d", ErrMissingCountry, i)
		}

		if first, ok := seen[rec.Country]; ok {
			return fmt.Errorf("%w %q at index %d (first at %d)", ErrDuplicateCountry, rec.Country, i, first)
		}

		seen[rec.Country] = i

		if rec.GDPEstimate < 0 || math.IsNaN(rec.GDPEstimate) || math.IsInf(rec.GDPEstimate, 0) {
			return fmt.Errorf("%w: %q has %v", ErrInvalidGDP, rec.Country, rec.GDPEstimate)
		}
	}

	return nil
}
