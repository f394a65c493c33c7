package csvimport

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/storeops/backend/internal/application/catalog"
	"github.com/storeops/backend/internal/domain/shared"
)

// Mapping file columns. Variation columns are optional; an empty cell means
// the simple product or the parent material.
const (
	ColumnProductID           = "product_id"
	ColumnVariationID         = "variation_id"
	ColumnMaterialProductID   = "material_product_id"
	ColumnMaterialVariationID = "material_variation_id"
	ColumnQuantityUsed        = "quantity_used"
)

// DefaultMaxRows bounds a single mapping file
const DefaultMaxRows = 5000

const maxReportedErrors = 50

// MappingFile is the outcome of reading a mapping spreadsheet
type MappingFile struct {
	Mappings    []catalog.CreateMappingRequest
	Errors      []RowError
	TotalErrors int
}

// Valid reports whether every row parsed
func (f *MappingFile) Valid() bool {
	return f.TotalErrors == 0
}

// ReadMappings parses a mapping spreadsheet. Cell problems are collected per
// row instead of failing fast; file level problems return an error.
func ReadMappings(r io.Reader, maxRows int, opts ...ParserOption) (*MappingFile, error) {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	p, err := NewParser(r, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.ParseHeader(); err != nil {
		return nil, err
	}
	if missing := p.MissingHeaders(ColumnProductID, ColumnMaterialProductID, ColumnQuantityUsed); len(missing) > 0 {
		return nil, shared.NewDomainError("INVALID_CSV_HEADER", fmt.Sprintf("CSV file is missing columns: %v", missing))
	}

	out := &MappingFile{Mappings: []catalog.CreateMappingRequest{}}
	errs := &rowErrors{max: maxReportedErrors}
	for {
		row, err := p.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			errs.add(RowError{Line: p.line, Code: CodeMalformedRow, Message: err.Error()})
			continue
		}
		if row.IsBlank() {
			continue
		}
		if len(out.Mappings)+errs.total >= maxRows {
			return nil, shared.NewDomainError("INVALID_CSV_SIZE", fmt.Sprintf("CSV file exceeds %d rows", maxRows))
		}
		if req, ok := mappingFromRow(row, errs); ok {
			out.Mappings = append(out.Mappings, req)
		}
	}

	out.Errors = errs.items
	out.TotalErrors = errs.total
	if len(out.Mappings) == 0 && out.TotalErrors == 0 {
		return nil, ErrNoDataRows
	}
	return out, nil
}

func mappingFromRow(row Row, errs *rowErrors) (catalog.CreateMappingRequest, bool) {
	ok := true
	required := func(column string) string {
		v := row.Get(column)
		if v == "" {
			errs.add(RowError{Line: row.Line, Column: column, Code: CodeRequired, Message: "value is required"})
			ok = false
		}
		return v
	}

	req := catalog.CreateMappingRequest{
		ProductID:           required(ColumnProductID),
		VariationID:         optional(row.Get(ColumnVariationID)),
		MaterialProductID:   required(ColumnMaterialProductID),
		MaterialVariationID: optional(row.Get(ColumnMaterialVariationID)),
	}

	if raw := required(ColumnQuantityUsed); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil || qty <= 0 {
			errs.add(RowError{Line: row.Line, Column: ColumnQuantityUsed, Code: CodeInvalidValue, Message: "must be a positive whole number", Value: raw})
			ok = false
		}
		req.QuantityUsed = qty
	}
	return req, ok
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
