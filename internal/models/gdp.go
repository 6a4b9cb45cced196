// Package models defines data structures shared by the ETL stages.
package models

import "time"

// RawDocument is the fetched page, consumed once by the table locator.
type RawDocument struct {
	URL         string
	Body        []byte
	StatusCode  int
	ContentType string
	FetchedIn   time.Duration
}

// CandidateTable is one HTML table extracted from the document before schema
// matching. Header holds one flattened label per column.
type CandidateTable struct {
	Index   int        `json:"index"`
	Caption string     `json:"caption"`
	Header  []string   `json:"header"`
	Rows    [][]string `json:"rows"`
}

// GDPRecord is one cleaned row of the output table.
type GDPRecord struct {
	Country     string  `json:"country"`
	Region      string  `json:"region"`
	GDPEstimate float64 `json:"gdpEstimate"`
	Year        int     `json:"year"`
}

// GDPTable is the ordered result of the transform stage.
type GDPTable struct {
	Source  string      `json:"source"`
	Unit    Unit        `json:"unit"`
	Records []GDPRecord `json:"records"`
}

// Len returns the number of records.
func (t *GDPTable) Len() int {
	if t == nil {
		return 0
	}

	return len(t.Records)
}

// Unit is the magnitude the source table reports GDP in.
type Unit string

// Source units.
const (
	UnitMillion  Unit = "million"
	UnitBillion  Unit = "billion"
	UnitTrillion Unit = "trillion"
)

// ToBillion converts v from u into billions.
func (u Unit) ToBillion(v float64) float64 {
	switch u {
	case UnitMillion:
		return v / 1000
	case UnitTrillion:
		return v * 1000
	default:
		return v
	}
}

// SkipReason explains why a source row did not reach the output.
type SkipReason string

// Skip reasons.
const (
	SkipConversion       SkipReason = "conversion"
	SkipEmptyCountry     SkipReason = "empty_country"
	SkipDuplicateCountry SkipReason = "duplicate_country"
	SkipShortRow         SkipReason = "short_row"
)

// SkippedRow records one dropped source row.
type SkippedRow struct {
	Err    error      `json:"-"`
	Reason SkipReason `json:"reason"`
	Cells  []string   `json:"cells"`
	Row    int        `json:"row"`
}

// QueryResult is the outcome of the post-load filter query.
type QueryResult struct {
	Records          []GDPRecord `json:"records"`
	ThresholdBillion float64     `json:"thresholdBillion"`
}

// RunSummary aggregates the counts the pipeline reports.
type RunSummary struct {
	StartedAt   time.Time          `json:"startedAt"`
	Duration    time.Duration      `json:"duration"`
	Source      string             `json:"source"`
	SkipCounts  map[SkipReason]int `json:"skipCounts"`
	InputRows   int                `json:"inputRows"`
	OutputRows  int                `json:"outputRows"`
	DroppedRows int                `json:"droppedRows"`
	MatchedRows int                `json:"matchedRows"`
}
