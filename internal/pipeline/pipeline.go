// Package pipeline runs the fetch, locate, transform, load and report stages
// of one ETL job in order.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gdpetl/internal/config"
	"gdpetl/internal/crawler"
	"gdpetl/internal/export"
	"gdpetl/internal/formatter"
	"gdpetl/internal/locator"
	"gdpetl/internal/logger"
	"gdpetl/internal/models"
	"gdpetl/internal/normalizer"
	"gdpetl/internal/store"
	"gdpetl/internal/validator"
	"gdpetl/pkg/metadata"
	"gdpetl/pkg/utils"
)

// State is a step of the run. The only path is
// Start → Fetched → Parsed → Transformed → Loaded → Reported → Done;
// any failure moves to Failed.
type State string

// Run states.
const (
	StateStart       State = "start"
	StateFetched     State = "fetched"
	StateParsed      State = "parsed"
	StateTransformed State = "transformed"
	StateLoaded      State = "loaded"
	StateReported    State = "reported"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// StageError wraps the error of the stage that failed. Stage is the state
// the run was trying to reach.
type StageError struct {
	Err   error
	Stage State
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Pipeline holds the collaborators of one run.
type Pipeline struct {
	cfg       *config.Config
	log       *logger.Logger
	client    *crawler.Client
	locator   *locator.Locator
	processor *normalizer.Processor
	strs      *utils.StringHelper
	out       io.Writer
	state     State
}

// New builds a pipeline from configuration. Console output goes to stdout.
func New(cfg *config.Config, log *logger.Logger) *Pipeline {
	return NewWithDeps(cfg, log, crawler.NewClientFromConfig(cfg), os.Stdout)
}

// NewWithDeps builds a pipeline with an injected crawler client and console writer.
func NewWithDeps(cfg *config.Config, log *logger.Logger, client *crawler.Client, out io.Writer) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		log:       log,
		client:    client,
		locator:   locator.NewLocator(cfg.Source.TableSelector),
		processor: normalizer.NewProcessorWithTransformer(normalizer.NewTransformerWithUnit(cfg.Source.GDPUnit)),
		strs:      utils.NewStringHelper(),
		out:       out,
		state:     StateStart,
	}
}

// State returns the state the run is in.
func (p *Pipeline) State() State {
	return p.state
}

func (p *Pipeline) advance(next State) {
	p.log.Debug("State transition", "from", p.state, "to", next)
	p.state = next
}

func (p *Pipeline) fail(stage State, err error) error {
	p.state = StateFailed
	p.log.Error("Stage failed", "stage", stage, "error", err)

	return &StageError{Stage: stage, Err: err}
}

// Run executes every stage once. Nothing is written before the document has
// been fetched, located and transformed.
func (p *Pipeline) Run(ctx context.Context) (*models.RunSummary, error) {
	summary := &models.RunSummary{
		StartedAt: time.Now(),
		Source:    p.cfg.Source.GetSource(),
	}

	p.log.Info("ETL job started", "source", summary.Source)

	// 1. Fetch
	p.log.Info("Fetch stage started")

	doc, err := p.client.Retrieve(ctx, p.cfg.Source)
	if err != nil {
		return nil, p.fail(StateFetched, err)
	}

	p.advance(StateFetched)
	p.log.Info("Fetch stage finished", "bytes", len(doc.Body), "status", doc.StatusCode, "duration", doc.FetchedIn)

	// 2. Locate
	p.log.Info("Locate stage started")

	table, columns, err := p.locator.Locate(doc)
	if err != nil {
		return nil, p.fail(StateParsed, err)
	}

	p.advance(StateParsed)
	p.log.Info("Locate stage finished",
		"table_index", table.Index,
		"header", table.Header,
		"columns", columns,
		"rows", len(table.Rows),
	)

	// 3. Transform
	p.log.Info("Transform stage started")

	result, err := p.processor.Process(table, columns)
	if err != nil {
		return nil, p.fail(StateTransformed, err)
	}

	summary.InputRows = len(table.Rows)
	summary.OutputRows = result.Table.Len()
	summary.DroppedRows = len(result.Skipped)
	summary.SkipCounts = normalizer.CountSkips(result.Skipped)
	result.Table.Source = summary.Source

	for _, s := range result.Skipped {
		p.log.Debug("Row dropped", "row", s.Row, "reason", s.Reason, "cells", p.rowPreview(s.Cells), "error", s.Err)
	}

	p.advance(StateTransformed)
	p.log.Info("Transform stage finished",
		"unit", result.Table.Unit,
		"input_rows", summary.InputRows,
		"output_rows", summary.OutputRows,
		"dropped_rows", summary.DroppedRows,
		"dropped_conversion", summary.SkipCounts[models.SkipConversion],
		"dropped_empty_country", summary.SkipCounts[models.SkipEmptyCountry],
		"dropped_duplicate_country", summary.SkipCounts[models.SkipDuplicateCountry],
		"dropped_short_row", summary.SkipCounts[models.SkipShortRow],
	)

	// 4. Load
	p.log.Info("Load stage started")

	db, err := p.load(ctx, result)
	if err != nil {
		return nil, p.fail(StateLoaded, err)
	}
	defer db.Close()

	p.advance(StateLoaded)
	p.log.Info("Load stage finished",
		"csv", p.cfg.Output.CSVPath,
		"db", p.cfg.Output.DBPath,
		"table", db.Table(),
		"rows", summary.OutputRows,
	)

	// 5. Report
	p.log.Info("Report stage started", "threshold_billion", p.cfg.Query.ThresholdBillion)

	matched, err := p.report(ctx, db, summary)
	if err != nil {
		return nil, p.fail(StateReported, err)
	}

	summary.MatchedRows = matched

	p.advance(StateReported)
	p.log.Info("Report stage finished", "matched_rows", matched)

	p.advance(StateDone)

	summary.Duration = time.Since(summary.StartedAt)
	p.log.Info("ETL job completed", "duration", summary.Duration)

	return summary, nil
}

// maxPreviewRunes bounds the cell text of a dropped row in the debug log.
const maxPreviewRunes = 80

func (p *Pipeline) rowPreview(cells []string) string {
	return p.strs.TruncateString(strings.Join(cells, " | "), maxPreviewRunes)
}

func (p *Pipeline) load(ctx context.Context, result *normalizer.Result) (*store.Store, error) {
	if err := export.WriteCSV(p.cfg.Output.CSVPath, result.Table); err != nil {
		return nil, err
	}

	p.log.Info("CSV saved", "path", p.cfg.Output.CSVPath)

	if p.cfg.Advanced.SaveFailedRows {
		if err := export.WriteSkippedCSV(p.cfg.Output.SkippedPath, result.Skipped); err != nil {
			return nil, err
		}

		p.log.Info("Skipped rows saved", "path", p.cfg.Output.SkippedPath, "rows", len(result.Skipped))
	}

	db, err := store.Open(ctx, p.cfg.Output.DBPath, p.cfg.Output.Table)
	if err != nil {
		return nil, err
	}

	if err := db.Replace(ctx, result.Table); err != nil {
		_ = db.Close()

		return nil, err
	}

	p.log.Info("Data loaded into database", "path", p.cfg.Output.DBPath, "table", db.Table())

	return db, nil
}

func (p *Pipeline) report(ctx context.Context, db *store.Store, summary *models.RunSummary) (int, error) {
	records, err := db.AboveThreshold(ctx, p.cfg.Query.ThresholdBillion, p.cfg.Query.Limit)
	if err != nil {
		return 0, err
	}

	result := models.QueryResult{ThresholdBillion: p.cfg.Query.ThresholdBillion, Records: records}

	p.log.Info("Query executed", "threshold_billion", result.ThresholdBillion, "row_count", len(records))

	for i, rec := range records {
		p.log.Info("Query row",
			"rank", i+1,
			"country", rec.Country,
			"region", rec.Region,
			"gdp_usd_billion", rec.GDPEstimate,
			"year", rec.Year,
		)
	}

	if p.cfg.Logging.ShowProgress {
		formatter.PrintResult(p.out, result)
	}

	if p.cfg.Output.ReportPath != "" {
		summary.MatchedRows = len(records)

		if err := p.writeReport(*summary, result); err != nil {
			return 0, err
		}
	}

	return len(records), nil
}

// writeReport renders, checks and signs the Markdown report. A report that
// fails the row checks is still written, signed with VALIDATION: FALSE.
func (p *Pipeline) writeReport(summary models.RunSummary, result models.QueryResult) error {
	v := validator.NewReportValidator(result.ThresholdBillion)

	body := formatter.RenderReportBody(summary, result)

	check := v.ValidateReport(body)
	for _, msg := range check.Messages() {
		p.log.Warn("Report validation error", "detail", msg)
	}

	for _, msg := range check.Warnings {
		p.log.Warn("Report validation warning", "detail", msg)
	}

	p.log.Info("Report validated", "result", check.String())

	report := metadata.Sign(body, summary.Source, check.IsValid)

	if err := v.ValidateIntegrity(report).Err(); err != nil {
		return err
	}

	if err := export.WriteFileAtomic(p.cfg.Output.ReportPath, []byte(report)); err != nil {
		return err
	}

	p.log.Info("Report saved", "path", p.cfg.Output.ReportPath, "validated", check.IsValid)

	return nil
}
