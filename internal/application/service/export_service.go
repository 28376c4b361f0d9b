package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tradegate/invoice-gate/internal/application/port"
	"github.com/tradegate/invoice-gate/internal/domain/entity"
)

const exportSheetName = "Invoices"

// Listing queries page at most this many rows per call
const exportPageSize = 500

// ExportService lists stored invoices and renders them to a spreadsheet
type ExportService interface {
	ListInvoices(ctx context.Context, limit, offset int) ([]*entity.Invoice, error)
	ExportExcel(ctx context.Context) ([]byte, error)
}

type exportServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	logger      Logger
}

// NewExportService creates a new ExportService
func NewExportService(invoiceRepo port.InvoiceRepository, logger Logger) ExportService {
	return &exportServiceImpl{invoiceRepo: invoiceRepo, logger: logger}
}

// ListInvoices returns stored invoices, newest first
func (s *exportServiceImpl) ListInvoices(ctx context.Context, limit, offset int) ([]*entity.Invoice, error) {
	return s.invoiceRepo.List(ctx, limit, offset)
}

// ExportExcel renders all stored invoices to an xlsx workbook
func (s *exportServiceImpl) ExportExcel(ctx context.Context) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headers := []string{"ID", "Invoice ID", "Invoice Date", "Due Date", "Vendor", "Subtotal", "Tax Amount", "Total Amount"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(exportSheetName, "A1", lastHeader, boldStyle)
	}

	row := 2
	for offset := 0; ; offset += exportPageSize {
		invoices, err := s.invoiceRepo.List(ctx, exportPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list invoices: %w", err)
		}
		if len(invoices) == 0 {
			break
		}

		for _, inv := range invoices {
			values := []interface{}{
				inv.ID,
				inv.InvoiceID,
				formatOptionalDate(inv.InvoiceDate),
				formatOptionalDate(inv.DueDate),
				inv.VendorName,
				derefOrZero(inv.Subtotal),
				derefOrZero(inv.TaxAmount),
				inv.TotalAmount,
			}
			for col, value := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(exportSheetName, cell, value); err != nil {
					return nil, fmt.Errorf("failed to write row: %w", err)
				}
			}
			row++
		}

		if len(invoices) < exportPageSize {
			break
		}
	}

	// Widen columns to fit typical content
	_ = f.SetColWidth(exportSheetName, "A", "H", 18)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Invoice export generated", "rows", row-2)
	return buf.Bytes(), nil
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func derefOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
