package normalizer

import (
	"errors"
	"math"
	"testing"

	"gdpetl/internal/models"
)

func TestNewValidator(t *testing.T) {
	v := NewValidator()
	if v == nil {
		t.Fatal("NewValidator returned nil")
	}
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator()

	table := &models.GDPTable{Records: []models.GDPRecord{
		{Country: "Germany", Region: "Europe", GDPEstimate: 4500, Year: 2023},
		{Country: "Tuvalu", Region: "Oceania", GDPEstimate: 0, Year: 2023},
	}}

	if err := v.Validate(table); err != nil {
		t.Errorf("Validate returned unexpected error for valid table: %v", err)
	}
}

func TestValidator_Validate_Errors(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		data    *models.GDPTable
		wantErr error
	}{
		{"Nil table", nil, ErrNilTable},
		{"No records", &models.GDPTable{}, ErrNoRecords},
		{
			"Missing country",
			&models.GDPTable{Records: []models.GDPRecord{{GDPEstimate: 1}}},
			ErrMissingCountry,
		},
		{
			"Duplicate country",
			&models.GDPTable{Records: []models.GDPRecord{{Country: "A"}, {Country: "A"}}},
			ErrDuplicateCountry,
		},
		{
			"Negative GDP",
			&models.GDPTable{Records: []models.GDPRecord{{Country: "A", GDPEstimate: -1}}},
			ErrInvalidGDP,
		},
		{
			"NaN GDP",
			&models.GDPTable{Records: []models.GDPRecord{{Country: "A", GDPEstimate: math.NaN()}}},
			ErrInvalidGDP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
