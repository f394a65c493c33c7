package csvimport

import (
	"fmt"

	"github.com/storeops/backend/internal/domain/shared"
)

// File level failures
var (
	ErrEmptyFile       = shared.NewDomainError("INVALID_CSV_EMPTY", "CSV file is empty")
	ErrInvalidEncoding = shared.NewDomainError("INVALID_CSV_ENCODING", "CSV file must be UTF-8 encoded")
	ErrMissingHeader   = shared.NewDomainError("INVALID_CSV_HEADER", "CSV file has no header row")
	ErrNoDataRows      = shared.NewDomainError("INVALID_CSV_NO_ROWS", "CSV file contains no data rows")
)

// Row error codes
const (
	CodeRequired     = "REQUIRED"
	CodeInvalidValue = "INVALID_VALUE"
	CodeMalformedRow = "MALFORMED_ROW"
)

// RowError locates a problem in one cell or row
type RowError struct {
	Line    int    `json:"line"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("line %d, column %s: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// rowErrors caps how many problems are collected from one file
type rowErrors struct {
	max   int
	items []RowError
	total int
}

func (c *rowErrors) add(e RowError) {
	c.total++
	if len(c.items) < c.max {
		c.items = append(c.items, e)
	}
}
