package formatter

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"gdpetl/internal/export"
	"gdpetl/internal/models"
)

// NewTable returns a table writer in the rounded style mirrored to w.
func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)

	return t
}

// PrintResult renders the threshold query result to w.
func PrintResult(w io.Writer, result models.QueryResult) {
	t := NewTable(w)
	t.SetTitle(fmt.Sprintf("Countries with GDP > %s billion USD", export.FormatGDP(result.ThresholdBillion)))

	header := table.Row{}
	for _, h := range export.Header {
		header = append(header, h)
	}

	t.AppendHeader(header)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	for _, rec := range result.Records {
		t.AppendRow(table.Row{rec.Country, rec.Region, export.FormatGDP(rec.GDPEstimate), rec.Year})
	}

	t.AppendFooter(table.Row{"Total countries", "", "", len(result.Records)})
	t.Render()
}
