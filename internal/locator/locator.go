// Package locator extracts HTML tables from a document and selects the one
// whose header matches the GDP schema.
package locator

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"gdpetl/internal/models"
	"gdpetl/pkg/utils"
)

var strs = utils.NewStringHelper()

func cleanText(s string) string {
	return strs.Clean(s)
}

// Locator finds the GDP table in a document.
type Locator struct {
	schema   Schema
	selector string
}

// NewLocator creates a locator using the default schema. Tables matching
// selector are preferred; when none match every table is considered.
func NewLocator(selector string) *Locator {
	return NewLocatorWithSchema(selector, DefaultSchema())
}

// NewLocatorWithSchema creates a locator for a custom schema.
func NewLocatorWithSchema(selector string, schema Schema) *Locator {
	if selector == "" {
		selector = "table"
	}

	return &Locator{schema: schema, selector: selector}
}

// Locate returns the first candidate whose header satisfies the schema and
// the column index of every schema field.
func (l *Locator) Locate(doc *models.RawDocument) (*models.CandidateTable, ColumnMap, error) {
	candidates, err := l.Candidates(doc)
	if err != nil {
		return nil, nil, err
	}

	headers := make([][]string, 0, len(candidates))

	for i := range candidates {
		columns, ok := MatchSchema(candidates[i].Header, l.schema)
		if ok {
			return &candidates[i], columns, nil
		}

		headers = append(headers, candidates[i].Header)
	}

	return nil, nil, &TableNotFoundError{Candidates: len(candidates), Headers: headers}
}

// Candidates parses doc and returns every table as a CandidateTable.
func (l *Locator) Candidates(doc *models.RawDocument) ([]models.CandidateTable, error) {
	if doc == nil || len(bytes.TrimSpace(doc.Body)) == 0 {
		return nil, &ParseError{Message: "empty document"}
	}

	root, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, &ParseError{Message: "failed to parse html", Cause: err}
	}

	tables := root.Find(l.selector)
	if tables.Length() == 0 {
		tables = root.Find("table")
	}

	candidates := make([]models.CandidateTable, 0, tables.Length())

	tables.Each(func(i int, table *goquery.Selection) {
		candidates = append(candidates, extractTable(i, table))
	})

	return candidates, nil
}

type gridCell struct {
	text   string
	header bool
}

type pendingSpan struct {
	cell gridCell
	left int
}

// ownRows returns the rows that belong to table itself, not to tables nested in it.
func ownRows(table *goquery.Selection) *goquery.Selection {
	return table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(table)
	})
}

func spanAttr(s *goquery.Selection, name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s.AttrOr(name, "1")))
	if err != nil || n < 1 {
		return 1
	}

	// Wikipedia occasionally ships absurd spans; cap them to keep the grid sane.
	if n > 1000 {
		return 1000
	}

	return n
}

// buildGrid expands colspan and rowspan so every row has one entry per column.
func buildGrid(table *goquery.Selection) ([][]gridCell, []bool) {
	var grid [][]gridCell

	var inHead []bool

	pending := map[int]*pendingSpan{}

	ownRows(table).Each(func(_ int, tr *goquery.Selection) {
		var row []gridCell

		col := 0

		fill := func() {
			for {
				p, ok := pending[col]
				if !ok {
					return
				}

				row = append(row, p.cell)

				p.left--
				if p.left == 0 {
					delete(pending, col)
				}

				col++
			}
		}

		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			fill()

			c := gridCell{
				text:   cellText(cell),
				header: goquery.NodeName(cell) == "th",
			}
			colspan := spanAttr(cell, "colspan")
			rowspan := spanAttr(cell, "rowspan")

			for k := 0; k < colspan; k++ {
				row = append(row, c)
				if rowspan > 1 {
					pending[col] = &pendingSpan{cell: c, left: rowspan - 1}
				}

				col++
			}
		})

		// Spans that reach past the last explicit cell of this row.
		for len(pending) > 0 {
			if _, ok := pending[col]; !ok {
				if !hasPendingAfter(pending, col) {
					break
				}

				row = append(row, gridCell{})
				col++

				continue
			}

			fill()
		}

		grid = append(grid, row)
		inHead = append(inHead, tr.ParentsFiltered("thead").Length() > 0)
	})

	return grid, inHead
}

func hasPendingAfter(pending map[int]*pendingSpan, col int) bool {
	for c := range pending {
		if c > col {
			return true
		}
	}

	return false
}

func isHeaderRow(row []gridCell) bool {
	if len(row) == 0 {
		return false
	}

	for _, c := range row {
		if !c.header {
			return false
		}
	}

	return true
}

func extractTable(index int, table *goquery.Selection) models.CandidateTable {
	grid, inHead := buildGrid(table)

	width := 0
	for _, row := range grid {
		if len(row) > width {
			width = len(row)
		}
	}

	headerRows := 0
	for i, row := range grid {
		if !inHead[i] && !isHeaderRow(row) {
			break
		}

		headerRows++
	}

	// Without a header section the first row names the columns.
	if headerRows == 0 && len(grid) > 0 {
		headerRows = 1
	}

	header := make([]string, width)

	for col := 0; col < width; col++ {
		var parts []string

		for _, row := range grid[:headerRows] {
			if col >= len(row) {
				continue
			}

			part := cleanText(row[col].text)
			if part == "" || (len(parts) > 0 && parts[len(parts)-1] == part) {
				continue
			}

			parts = append(parts, part)
		}

		header[col] = strings.Join(parts, " ")
	}

	rows := make([][]string, 0, len(grid)-headerRows)

	for _, row := range grid[headerRows:] {
		cells := make([]string, width)
		empty := true

		for col := 0; col < width && col < len(row); col++ {
			cells[col] = row[col].text
			if strings.TrimSpace(row[col].text) != "" {
				empty = false
			}
		}

		if !empty {
			rows = append(rows, cells)
		}
	}

	return models.CandidateTable{
		Index:   index,
		Caption: cleanText(cellText(table.ChildrenFiltered("caption").First())),
		Header:  header,
		Rows:    rows,
	}
}

// cellText returns the visible text of a cell. Hidden sort keys, styles and
// scripts are skipped; line breaks become spaces.
func cellText(sel *goquery.Selection) string {
	var buf bytes.Buffer

	for _, n := range sel.Nodes {
		visibleText(n, &buf)
	}

	return strings.TrimSpace(buf.String())
}

func visibleText(node *html.Node, buf *bytes.Buffer) {
	if node == nil {
		return
	}

	switch node.Type {
	case html.TextNode:
		buf.WriteString(node.Data)

		return
	case html.ElementNode:
		switch node.Data {
		case "style", "script":
			return
		case "br":
			buf.WriteByte(' ')

			return
		}

		for _, a := range node.Attr {
			if a.Key == "style" && strings.Contains(strings.ReplaceAll(a.Val, " ", ""), "display:none") {
				return
			}
		}
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		visibleText(child, buf)
	}
}
