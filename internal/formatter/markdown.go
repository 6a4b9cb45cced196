// Package formatter renders the query result as a Markdown report and as a
// console table.
package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"gdpetl/internal/export"
	"gdpetl/internal/models"
	"gdpetl/pkg/metadata"
)

// RenderReportBody builds the unsigned Markdown report for a run: a summary
// list and the rows returned by the threshold query, with aligned columns.
func RenderReportBody(summary models.RunSummary, result models.QueryResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Countries with GDP > %s billion USD\n\n", export.FormatGDP(result.ThresholdBillion))
	fmt.Fprintf(&sb, "- Source: %s\n", summary.Source)
	fmt.Fprintf(&sb, "- Input rows: %d\n", summary.InputRows)
	fmt.Fprintf(&sb, "- Loaded rows: %d\n", summary.OutputRows)
	fmt.Fprintf(&sb, "- Dropped rows: %d\n", summary.DroppedRows)
	fmt.Fprintf(&sb, "- Matching rows: %d\n\n", len(result.Records))

	sb.WriteString("| " + strings.Join(export.Header, " | ") + " |\n")
	sb.WriteString("|---|---|---|---|\n")

	for _, rec := range result.Records {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
			escapeCell(rec.Country), escapeCell(rec.Region), export.FormatGDP(rec.GDPEstimate), strconv.Itoa(rec.Year))
	}

	return FormatMarkdown(sb.String())
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// FormatMarkdown aligns every pipe table in content by display width. Any
// existing metadata block is dropped; callers re-sign the result.
func FormatMarkdown(content string) string {
	_, cleanContent := metadata.Extract(content)

	lines := strings.Split(cleanContent, "\n")

	var formattedLines []string

	var tableBuffer []string

	for _, line := range lines {
		trimmedLine := strings.TrimSpace(line)

		// Simple heuristic: a table row starts and ends with |
		if strings.HasPrefix(trimmedLine, "|") && strings.HasSuffix(trimmedLine, "|") {
			tableBuffer = append(tableBuffer, line)

			continue
		}

		if len(tableBuffer) > 0 {
			formattedLines = append(formattedLines, processTable(tableBuffer)...)
			tableBuffer = nil
		}

		formattedLines = append(formattedLines, line)
	}

	if len(tableBuffer) > 0 {
		formattedLines = append(formattedLines, processTable(tableBuffer)...)
	}

	return strings.Join(formattedLines, "\n")
}

// SplitRow splits a pipe table row into trimmed cells, honouring "\|" escapes.
func SplitRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")

	var cells []string

	var cur strings.Builder

	escaped := false

	for _, r := range row {
		switch {
		case escaped:
			cur.WriteRune(r)

			escaped = false
		case r == '\\':
			cur.WriteRune(r)

			escaped = true
		case r == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}

	return append(cells, strings.TrimSpace(cur.String()))
}

// IsSeparatorRow reports whether cells form a header separator such as "| --- | :-: |".
func IsSeparatorRow(cells []string) bool {
	for _, cell := range cells {
		trim := strings.NewReplacer("-", "", ":", "", " ", "").Replace(cell)
		if trim != "" || cell == "" {
			return false
		}
	}

	return true
}

func processTable(rows []string) []string {
	// Needs at least header and separator
	if len(rows) < 2 {
		return rows
	}

	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		table = append(table, SplitRow(row))
	}

	colCount := 0
	for _, row := range table {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	separatorRowIdx := -1
	if IsSeparatorRow(table[1]) {
		separatorRowIdx = 1
	}

	// Column widths by display width; the separator needs at least "---"
	colWidths := make([]int, colCount)
	for i := range colWidths {
		colWidths[i] = 3
	}

	for rIdx, row := range table {
		if rIdx == separatorRowIdx {
			continue
		}

		for i, cell := range row {
			if width := runewidth.StringWidth(cell); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	result := make([]string, 0, len(table))

	for i, row := range table {
		var sb strings.Builder

		sb.WriteString("|")

		for j := 0; j < colCount; j++ {
			sb.WriteString(" ")

			if i == separatorRowIdx {
				sb.WriteString(strings.Repeat("-", colWidths[j]))
			} else {
				content := ""
				if j < len(row) {
					content = row[j]
				}

				sb.WriteString(runewidth.FillRight(content, colWidths[j]))
			}

			sb.WriteString(" |")
		}

		result = append(result, sb.String())
	}

	return result
}
