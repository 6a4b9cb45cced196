package locator

import (
	"fmt"
	"strings"
)

// ParseError means the document could not be read as HTML tables.
type ParseError struct {
	Cause   error
	Message string
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}

	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// TableNotFoundError means no candidate table carried the expected header.
type TableNotFoundError struct {
	Headers    [][]string
	Candidates int
}

func (e *TableNotFoundError) Error() string {
	if e.Candidates == 0 {
		return "table not found: document contains no tables"
	}

	seen := make([]string, 0, len(e.Headers))
	for _, h := range e.Headers {
		seen = append(seen, "["+strings.Join(h, ", ")+"]")
	}

	return fmt.Sprintf("table not found: none of %d candidates matched; headers: %s",
		e.Candidates, strings.Join(seen, " "))
}
