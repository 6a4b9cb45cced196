// Package store persists the GDP table in an embedded SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	_ "modernc.org/sqlite"

	"gdpetl/internal/models"
)

// ErrInvalidTableName rejects table names that are not plain identifiers.
var ErrInvalidTableName = errors.New("invalid table name")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// StorageError reports a failed database operation.
type StorageError struct {
	Cause error
	Op    string
	Table string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Table, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Store owns one SQLite database file and one GDP table inside it.
type Store struct {
	db    *sql.DB
	table string
}

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path, table string) (*Store, error) {
	if !identifierPattern.MatchString(table) {
		return nil, &StorageError{Op: "open", Table: table, Cause: ErrInvalidTableName}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Op: "open", Table: table, Cause: err}
	}

	// One connection keeps ":memory:" databases coherent and matches the
	// single-writer run.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, &StorageError{Op: "open", Table: table, Cause: err}
	}

	return &Store{db: db, table: table}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Table returns the table name.
func (s *Store) Table() string {
	return s.table
}

// Replace drops and recreates the table and inserts every record, all in a
// single transaction.
func (s *Store) Replace(ctx context.Context, table *models.GDPTable) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "begin", Table: s.table, Cause: err}
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, s.table)); err != nil {
		return &StorageError{Op: "drop", Table: s.table, Cause: err}
	}

	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE "%s" (
	Country TEXT NOT NULL PRIMARY KEY,
	Region TEXT,
	GDP_USD_billion REAL NOT NULL,
	Year INTEGER
)`, s.table)); err != nil {
		return &StorageError{Op: "create", Table: s.table, Cause: err}
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO "%s" (Country, Region, GDP_USD_billion, Year) VALUES (?, ?, ?, ?)`, s.table))
	if err != nil {
		return &StorageError{Op: "prepare", Table: s.table, Cause: err}
	}
	defer stmt.Close()

	for _, rec := range table.Records {
		if _, err = stmt.ExecContext(ctx, rec.Country, rec.Region, rec.GDPEstimate, rec.Year); err != nil {
			return &StorageError{Op: "insert", Table: s.table, Cause: fmt.Errorf("%s: %w", rec.Country, err)}
		}
	}

	if err = tx.Commit(); err != nil {
		return &StorageError{Op: "commit", Table: s.table, Cause: err}
	}

	return nil
}

// AboveThreshold returns the records whose GDP exceeds threshold billion USD,
// largest first. A positive limit caps the number of rows.
func (s *Store) AboveThreshold(ctx context.Context, threshold float64, limit int) ([]models.GDPRecord, error) {
	query := fmt.Sprintf(`SELECT Country, Region, GDP_USD_billion, Year FROM "%s"
WHERE GDP_USD_billion > ?
ORDER BY GDP_USD_billion DESC, Country ASC`, s.table)

	args := []any{threshold}
	if limit > 0 {
		query += "\nLIMIT ?"

		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "query", Table: s.table, Cause: err}
	}
	defer rows.Close()

	var out []models.GDPRecord

	for rows.Next() {
		var (
			rec    models.GDPRecord
			region sql.NullString
			year   sql.NullInt64
		)

		if err := rows.Scan(&rec.Country, &region, &rec.GDPEstimate, &year); err != nil {
			return nil, &StorageError{Op: "scan", Table: s.table, Cause: err}
		}

		rec.Region = region.String
		rec.Year = int(year.Int64)
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "query", Table: s.table, Cause: err}
	}

	return out, nil
}

// Count returns the number of rows in the table.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int

	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, s.table)).Scan(&n)
	if err != nil {
		return 0, &StorageError{Op: "count", Table: s.table, Cause: err}
	}

	return n, nil
}
