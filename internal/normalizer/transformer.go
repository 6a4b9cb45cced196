package normalizer

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"gdpetl/internal/locator"
	"gdpetl/internal/models"
	"gdpetl/pkg/utils"
)

// ErrColumnOutOfRange is returned when a column map points past the table width.
var ErrColumnOutOfRange = errors.New("column index out of range")

// ErrNoNumericValue means a numeric cell held nothing but markers or punctuation.
var ErrNoNumericValue = errors.New("no numeric value")

// ErrMalformedNumber means a GDP cell held digits but not a plain decimal.
var ErrMalformedNumber = errors.New("malformed number")

// ErrInvalidYear means a year cell was not a four digit year.
var ErrInvalidYear = errors.New("invalid year")

// RowConversionError reports a numeric cell that could not be converted.
// The transformer recovers from it by skipping the row.
type RowConversionError struct {
	Cause  error
	Column string
	Value  string
	Row    int
}

func (e *RowConversionError) Error() string {
	return fmt.Sprintf("row %d: cannot convert %s value %q: %v", e.Row, e.Column, e.Value, e.Cause)
}

func (e *RowConversionError) Unwrap() error {
	return e.Cause
}

// Transformer converts a located candidate table into the GDP schema.
type Transformer struct {
	strs *utils.StringHelper
	unit string
}

// NewTransformer creates a transformer that detects the GDP unit from the table.
func NewTransformer() *Transformer {
	return NewTransformerWithUnit("auto")
}

// NewTransformerWithUnit creates a transformer for a fixed source unit
// ("million", "billion", "trillion") or "auto".
func NewTransformerWithUnit(unit string) *Transformer {
	return &Transformer{
		strs: utils.NewStringHelper(),
		unit: unit,
	}
}

// Transform cleans every row of table. Rows that fail conversion, lack a
// country or repeat an earlier country are returned as skipped rows instead
// of aborting the run.
func (t *Transformer) Transform(table *models.CandidateTable, columns locator.ColumnMap) (*models.GDPTable, []models.SkippedRow, error) {
	for _, field := range []string{locator.FieldCountry, locator.FieldRegion, locator.FieldGDP, locator.FieldYear} {
		idx, ok := columns[field]
		if !ok || idx < 0 || idx >= len(table.Header) {
			return nil, nil, fmt.Errorf("%w: %s", ErrColumnOutOfRange, field)
		}
	}

	unit := t.resolveUnit(table, columns)

	out := &models.GDPTable{
		Unit:    unit,
		Records: make([]models.GDPRecord, 0, len(table.Rows)),
	}

	var skipped []models.SkippedRow

	seen := make(map[string]bool, len(table.Rows))

	skip := func(row int, cells []string, reason models.SkipReason, err error) {
		skipped = append(skipped, models.SkippedRow{Row: row, Cells: cells, Reason: reason, Err: err})
	}

	for i, cells := range table.Rows {
		if len(cells) <= maxIndex(columns) {
			skip(i, cells, models.SkipShortRow, nil)

			continue
		}

		gdp, err := t.parseGDP(cells[columns[locator.FieldGDP]])
		if err != nil {
			skip(i, cells, models.SkipConversion, &RowConversionError{
				Row: i, Column: locator.FieldGDP, Value: cells[columns[locator.FieldGDP]], Cause: err,
			})

			continue
		}

		year, err := t.parseYear(cells[columns[locator.FieldYear]])
		if err != nil {
			skip(i, cells, models.SkipConversion, &RowConversionError{
				Row: i, Column: locator.FieldYear, Value: cells[columns[locator.FieldYear]], Cause: err,
			})

			continue
		}

		country := t.CleanName(cells[columns[locator.FieldCountry]])
		if country == "" {
			skip(i, cells, models.SkipEmptyCountry, nil)

			continue
		}

		if seen[country] {
			skip(i, cells, models.SkipDuplicateCountry, nil)

			continue
		}

		seen[country] = true

		out.Records = append(out.Records, models.GDPRecord{
			Country:     country,
			Region:      t.CleanName(cells[columns[locator.FieldRegion]]),
			GDPEstimate: round2(unit.ToBillion(gdp)),
			Year:        year,
		})
	}

	return out, skipped, nil
}

// CleanName trims whitespace and drops bracketed annotations.
func (t *Transformer) CleanName(s string) string {
	return t.strs.Clean(s)
}

// numericNoise is what may surround or separate the digits of a numeric
// cell: thousands separators, spaces and currency markers.
var numericNoise = strings.NewReplacer(
	",", "",
	" ", "",
	"\u00a0", "",
	"\u2009", "",
	"\u202f", "",
	"US$", "",
	"$", "",
	"€", "",
	"£", "",
)

var (
	decimalPattern = regexp.MustCompile(`^(\d+(\.\d+)?|\.\d+)$`)
	yearPattern    = regexp.MustCompile(`^\d{4}$`)
)

// numericText strips footnotes and separator noise. Whatever remains must be
// the number itself.
func (t *Transformer) numericText(s string) (string, error) {
	text := numericNoise.Replace(t.strs.StripFootnotes(s))

	if !strings.ContainsFunc(text, unicode.IsDigit) {
		return "", ErrNoNumericValue
	}

	return text, nil
}

func (t *Transformer) parseGDP(cell string) (float64, error) {
	text, err := t.numericText(cell)
	if err != nil {
		return 0, err
	}

	if !decimalPattern.MatchString(text) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, text)
	}

	return strconv.ParseFloat(text, 64)
}

func (t *Transformer) parseYear(cell string) (int, error) {
	text, err := t.numericText(cell)
	if err != nil {
		return 0, err
	}

	if !yearPattern.MatchString(text) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidYear, text)
	}

	return strconv.Atoi(text)
}

// resolveUnit reads the magnitude from the GDP header and the table caption
// when the unit is "auto"; billions are assumed when neither names one.
func (t *Transformer) resolveUnit(table *models.CandidateTable, columns locator.ColumnMap) models.Unit {
	if t.unit != "" && t.unit != "auto" {
		return models.Unit(t.unit)
	}

	text := strings.ToLower(table.Header[columns[locator.FieldGDP]] + " " + table.Caption)

	switch {
	case strings.Contains(text, "trillion"):
		return models.UnitTrillion
	case strings.Contains(text, "billion"):
		return models.UnitBillion
	case strings.Contains(text, "million"):
		return models.UnitMillion
	}

	return models.UnitBillion
}

func maxIndex(columns locator.ColumnMap) int {
	m := 0
	for _, idx := range columns {
		if idx > m {
			m = idx
		}
	}

	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CountSkips groups skipped rows by reason.
func CountSkips(skipped []models.SkippedRow) map[models.SkipReason]int {
	counts := make(map[models.SkipReason]int)
	for _, s := range skipped {
		counts[s.Reason]++
	}

	return counts
}
