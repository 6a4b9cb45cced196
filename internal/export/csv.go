// Package export writes the cleaned GDP table to flat files.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gdpetl/internal/models"
)

// Header is the column row of the flat file.
var Header = []string{"Country", "Region", "GDP (Billion USD)", "Year"}

// IOError reports a failed flat-file write.
type IOError struct {
	Cause error
	Path  string
	Op    string
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Cause)
}

func (e *IOError) Unwrap() error {
	return e.Cause
}

// FormatGDP renders a GDP value with the shortest exact representation.
func FormatGDP(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// EncodeCSV renders table as CSV bytes, header first.
func EncodeCSV(table *models.GDPTable) ([]byte, error) {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, err
	}

	for _, rec := range table.Records {
		if err := w.Write([]string{rec.Country, rec.Region, FormatGDP(rec.GDPEstimate), strconv.Itoa(rec.Year)}); err != nil {
			return nil, err
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// WriteCSV replaces the file at path with table. The content is written to a
// temporary file in the same directory and renamed into place, so a failed
// write leaves any previous file untouched.
func WriteCSV(path string, table *models.GDPTable) error {
	data, err := EncodeCSV(table)
	if err != nil {
		return &IOError{Op: "encode", Path: path, Cause: err}
	}

	return WriteFileAtomic(path, data)
}

// WriteSkippedCSV writes the rows the transformer dropped, with their reason.
func WriteSkippedCSV(path string, skipped []models.SkippedRow) error {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Row", "Reason", "Error", "Cells"})

	for _, s := range skipped {
		msg := ""
		if s.Err != nil {
			msg = s.Err.Error()
		}

		record := append([]string{strconv.Itoa(s.Row), string(s.Reason), msg}, s.Cells...)
		_ = w.Write(record)
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return &IOError{Op: "encode", Path: path, Cause: err}
	}

	return WriteFileAtomic(path, buf.Bytes())
}

// WriteFileAtomic writes data to path through a temp file and rename.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &IOError{Op: "mkdir", Path: dir, Cause: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &IOError{Op: "create", Path: path, Cause: err}
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return &IOError{Op: "write", Path: path, Cause: err}
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return &IOError{Op: "close", Path: path, Cause: err}
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)

		return &IOError{Op: "chmod", Path: path, Cause: err}
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)

		return &IOError{Op: "rename", Path: path, Cause: err}
	}

	return nil
}
