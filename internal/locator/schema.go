package locator

import "strings"

// Target schema field names.
const (
	FieldCountry = "country"
	FieldRegion  = "region"
	FieldGDP     = "gdp_estimate"
	FieldYear    = "year"
)

// Field describes how one target column is recognised in a source header.
// A header cell matches when its lowercased text contains any of Tokens and
// none of Excludes.
type Field struct {
	Name     string
	Tokens   []string
	Excludes []string
}

// Schema is the ordered list of fields a table must provide. Fields claim
// columns in order, so earlier fields win contested columns.
type Schema []Field

// ColumnMap maps a field name to its column index in the source table.
type ColumnMap map[string]int

// DefaultSchema is the GDP table shape the job looks for.
func DefaultSchema() Schema {
	return Schema{
		{Name: FieldCountry, Tokens: []string{"country", "territory", "nation"}},
		{Name: FieldRegion, Tokens: []string{"region", "continent"}},
		{Name: FieldGDP, Tokens: []string{"estimate", "gdp", "imf", "usd", "us$", "million"}, Excludes: []string{"year"}},
		{Name: FieldYear, Tokens: []string{"year"}},
	}
}

func (f Field) matches(label string) bool {
	for _, ex := range f.Excludes {
		if strings.Contains(label, ex) {
			return false
		}
	}

	for _, tok := range f.Tokens {
		if strings.Contains(label, tok) {
			return true
		}
	}

	return false
}

// MatchSchema assigns each schema field to a distinct header column. Matching
// is case-insensitive and does not depend on column order. It reports false
// when any field is left without a column.
func MatchSchema(header []string, schema Schema) (ColumnMap, bool) {
	labels := make([]string, len(header))
	for i, h := range header {
		labels[i] = strings.ToLower(cleanText(h))
	}

	claimed := make([]bool, len(labels))
	columns := make(ColumnMap, len(schema))

	for _, field := range schema {
		found := false

		for i, label := range labels {
			if claimed[i] || label == "" || !field.matches(label) {
				continue
			}

			claimed[i] = true
			columns[field.Name] = i
			found = true

			break
		}

		if !found {
			return nil, false
		}
	}

	return columns, true
}
