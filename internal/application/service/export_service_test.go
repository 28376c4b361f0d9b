package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tradegate/invoice-gate/internal/domain/entity"
)

func TestExportExcel(t *testing.T) {
	invoiceRepo := &fakeInvoiceRepo{
		created: []*entity.Invoice{
			{
				ID:          1,
				InvoiceID:   "INV-6001",
				InvoiceDate: timePtr(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)),
				VendorName:  "Severstal Trading",
				Subtotal:    floatPtr(10000),
				TaxAmount:   floatPtr(800),
				TotalAmount: 10800,
			},
			{
				ID:          2,
				InvoiceID:   "INV-6002",
				VendorName:  "Baosteel Trading",
				TotalAmount: 500,
			},
		},
	}
	svc := NewExportService(invoiceRepo, nopLogger{})

	data, err := svc.ExportExcel(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Invoices")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Invoice ID", rows[0][1])
	assert.Equal(t, "INV-6001", rows[1][1])
	assert.Equal(t, "2026-03-10", rows[1][2])
	assert.Equal(t, "Severstal Trading", rows[1][4])
	assert.Equal(t, "INV-6002", rows[2][1])
}

func TestExportExcel_EmptyLedger(t *testing.T) {
	svc := NewExportService(&fakeInvoiceRepo{}, nopLogger{})

	data, err := svc.ExportExcel(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Invoices")
	require.NoError(t, err)
	require.Len(t, rows, 1) // headers only
}
