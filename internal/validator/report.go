// Package validator checks a rendered GDP report before it is signed.
package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gdpetl/internal/export"
	"gdpetl/internal/formatter"
	"gdpetl/pkg/metadata"
)

// ErrIntegrity is returned when a signed report does not match its hash.
var ErrIntegrity = errors.New("report integrity check failed")

// ValidationError represents a validation error with context.
type ValidationError struct {
	Field   string
	Value   string
	Pattern string
	Message string
	Line    int
	Column  int
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []string
	Stats    ValidationStats
	IsValid  bool
}

// ValidationStats contains validation statistics.
type ValidationStats struct {
	TotalRows   int
	ValidRows   int
	InvalidRows int
}

// ReportValidator validates the result table of a report against the
// threshold it was queried with.
type ReportValidator struct {
	threshold   float64
	yearPattern *regexp.Regexp
}

// NewReportValidator creates a validator for reports queried with threshold
// (billions of USD).
func NewReportValidator(threshold float64) *ReportValidator {
	return &ReportValidator{
		threshold:   threshold,
		yearPattern: regexp.MustCompile(`^\d{4}$`),
	}
}

// ValidateReport checks the first pipe table in markdown: the header must be
// the export header, every row must have a country, a GDP strictly above the
// threshold and a four digit year, and rows must be in descending GDP order.
func (v *ReportValidator) ValidateReport(markdown string) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	_, body := metadata.Extract(markdown)

	headerSeen := false
	prevGDP := 0.0

	for i, line := range strings.Split(body, "\n") {
		lineNum := i + 1
		line = strings.TrimSpace(line)

		if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") {
			if headerSeen {
				// Only the first table is checked
				break
			}

			continue
		}

		cells := formatter.SplitRow(line)

		if !headerSeen {
			if strings.Join(cells, "|") != strings.Join(export.Header, "|") {
				result.addError(ValidationError{
					Line:    lineNum,
					Column:  1,
					Field:   "header",
					Value:   line,
					Message: fmt.Sprintf("expected header %q", export.Header),
				})

				return result
			}

			headerSeen = true

			continue
		}

		if formatter.IsSeparatorRow(cells) {
			continue
		}

		result.Stats.TotalRows++

		errs, gdp := v.validateRow(cells, lineNum)
		if len(errs) > 0 {
			result.Stats.InvalidRows++

			for _, e := range errs {
				result.addError(e)
			}

			continue
		}

		result.Stats.ValidRows++

		if result.Stats.ValidRows > 1 && gdp > prevGDP {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("line %d: rows are not in descending GDP order", lineNum))
		}

		prevGDP = gdp
	}

	if !headerSeen {
		result.addError(ValidationError{Message: "no result table found"})
	}

	return result
}

// validateRow validates a single table row and returns its GDP value.
func (v *ReportValidator) validateRow(cells []string, lineNum int) ([]ValidationError, float64) {
	var errs []ValidationError

	// Expect: COUNTRY | REGION | GDP | YEAR
	if len(cells) != len(export.Header) {
		errs = append(errs, ValidationError{
			Line:    lineNum,
			Column:  1,
			Message: fmt.Sprintf("expected %d columns, got %d", len(export.Header), len(cells)),
		})

		return errs, 0
	}

	// 1. Country
	if cells[0] == "" {
		errs = append(errs, ValidationError{
			Line:    lineNum,
			Column:  1,
			Field:   "country",
			Message: "country field is empty",
		})
	}

	// 2. GDP
	gdp, err := strconv.ParseFloat(cells[2], 64)

	switch {
	case err != nil:
		errs = append(errs, ValidationError{
			Line:    lineNum,
			Column:  3,
			Field:   "gdp",
			Value:   cells[2],
			Message: fmt.Sprintf("gdp '%s' is not a number", cells[2]),
		})
	case gdp <= v.threshold:
		errs = append(errs, ValidationError{
			Line:    lineNum,
			Column:  3,
			Field:   "gdp",
			Value:   cells[2],
			Message: fmt.Sprintf("gdp %s is not above the threshold %s", cells[2], export.FormatGDP(v.threshold)),
		})
	}

	// 3. Year
	if !v.yearPattern.MatchString(cells[3]) {
		errs = append(errs, ValidationError{
			Line:    lineNum,
			Column:  4,
			Field:   "year",
			Value:   cells[3],
			Pattern: v.yearPattern.String(),
			Message: fmt.Sprintf("year '%s' invalid format", cells[3]),
		})
	}

	return errs, gdp
}

// ValidateIntegrity checks the integrity of the report using its metadata block.
func (v *ReportValidator) ValidateIntegrity(content string) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	valid, err := metadata.Verify(content)
	if !valid {
		result.addError(ValidationError{
			Message: fmt.Sprintf("%v: %v", ErrIntegrity, err),
		})
	}

	return result
}

func (r *ValidationResult) addError(e ValidationError) {
	r.IsValid = false
	r.Errors = append(r.Errors, e)
}

// Err returns nil for a valid result and an error joining every message otherwise.
func (r *ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}

	errs := make([]error, 0, len(r.Errors))
	for _, msg := range r.Messages() {
		errs = append(errs, errors.New(msg))
	}

	return errors.Join(errs...)
}

// Messages returns one readable line per validation error.
func (r *ValidationResult) Messages() []string {
	msgs := make([]string, 0, len(r.Errors))

	for _, err := range r.Errors {
		if err.Line == 0 {
			msgs = append(msgs, err.Message)

			continue
		}

		msg := fmt.Sprintf("line %d, col %d", err.Line, err.Column)
		if err.Field != "" {
			msg += fmt.Sprintf(" [%s]", err.Field)
		}

		msg += ": " + err.Message

		if err.Value != "" {
			msg += fmt.Sprintf(" (found %q)", err.Value)
		}

		msgs = append(msgs, msg)
	}

	return msgs
}

// String returns string representation of validation result.
func (r *ValidationResult) String() string {
	status := "VALID"
	if !r.IsValid {
		status = "INVALID"
	}

	return fmt.Sprintf(
		"%s | Total: %d | Valid: %d | Invalid: %d | Warnings: %d",
		status,
		r.Stats.TotalRows,
		r.Stats.ValidRows,
		r.Stats.InvalidRows,
		len(r.Warnings),
	)
}
