// Package export renders ledger entries into downloadable documents.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/storeops/backend/internal/application/inventory"
	"github.com/xuri/excelize/v2"
)

const (
	ledgerSheet    = "Ledger"
	xlsxTimeLayout = "2006-01-02 15:04:05"
)

var ledgerHeader = []any{
	"Date", "Material", "Material ID", "Variation ID", "Reason",
	"Order ID", "Order / PO Number", "Change", "Previous Stock", "New Stock", "Notes",
}

// XLSXExporter writes ledger entries as a single-sheet workbook
type XLSXExporter struct{}

// NewXLSXExporter creates an XLSXExporter
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// ContentType implements inventory.LedgerExporter
func (XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension implements inventory.LedgerExporter
func (XLSXExporter) Extension() string {
	return "xlsx"
}

// Export streams one row per entry below a bold frozen header row
func (XLSXExporter) Export(ctx context.Context, entries []inventory.LedgerEntryResponse, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetPanes(ledgerSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	sw, err := f.NewStreamWriter(ledgerSheet)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}
	if err := sw.SetColWidth(1, 2, 24); err != nil {
		return err
	}
	if err := sw.SetColWidth(3, 4, 38); err != nil {
		return err
	}
	if err := sw.SetRow("A1", ledgerHeader, excelize.RowOpts{StyleID: headerStyle}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, ledgerRow(e)); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func ledgerRow(e inventory.LedgerEntryResponse) []any {
	variation := ""
	if e.MaterialVariationID != nil {
		variation = e.MaterialVariationID.String()
	}
	return []any{
		e.CreatedAt.UTC().Format(xlsxTimeLayout),
		e.MaterialName,
		e.MaterialProductID.String(),
		variation,
		e.Reason,
		deref(e.OrderID),
		deref(e.OrderNumber),
		e.QuantityChange,
		e.PreviousStock,
		e.NewStock,
		e.Notes,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ inventory.LedgerExporter = XLSXExporter{}
