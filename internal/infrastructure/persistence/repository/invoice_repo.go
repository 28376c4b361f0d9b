package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tradegate/invoice-gate/internal/application/port"
	"github.com/tradegate/invoice-gate/internal/domain/entity"
)

// InvoiceRepository implements port.InvoiceRepository on sqlite
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{db: db, logger: logger}
}

const invoiceColumns = `id, invoice_id, invoice_date, due_date, vendor_name,
	country, subtotal, tax_amount, tax_percentage, total_amount, line_items, created_at`

// Create stores an invoice record with its line items serialized as JSON
func (r *InvoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	items, err := json.Marshal(invoice.LineItems)
	if err != nil {
		return fmt.Errorf("failed to marshal line items: %w", err)
	}

	query := `
		INSERT INTO invoices (
			invoice_id, invoice_date, due_date, vendor_name, country,
			subtotal, tax_amount, tax_percentage, total_amount, line_items
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		nullString(invoice.InvoiceID),
		nullTime(invoice.InvoiceDate),
		nullTime(invoice.DueDate),
		nullString(invoice.VendorName),
		nullString(invoice.Country),
		invoice.Subtotal,
		invoice.TaxAmount,
		invoice.TaxPercentage,
		invoice.TotalAmount,
		string(items),
	)
	if err != nil {
		r.logger.Error("Failed to create invoice", zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	invoice.ID = id
	return nil
}

// GetByInvoiceID retrieves an invoice by its declared identifier. Ids
// are not unique (resubmissions are stored as new rows and surfaced by
// the duplicate fraud check); the latest row wins.
func (r *InvoiceRepository) GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE invoice_id = ? ORDER BY id DESC LIMIT 1`

	invoice, err := scanInvoice(executorFrom(ctx, r.db).QueryRowContext(ctx, query, invoiceID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get invoice", zap.String("invoice_id", invoiceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

// CountByAmountAndDate counts invoices with the same total and date,
// narrowed by vendor when known
func (r *InvoiceRepository) CountByAmountAndDate(ctx context.Context, amount float64, date time.Time, vendorName string) (int, error) {
	query := `SELECT COUNT(*) FROM invoices WHERE total_amount = ? AND invoice_date = ?`
	args := []interface{}{amount, date}
	if vendorName != "" {
		query += ` AND vendor_name = ?`
		args = append(args, vendorName)
	}

	var count int
	if err := executorFrom(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count invoices by amount and date", zap.Error(err))
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return count, nil
}

// CountRecentSimilar counts invoices from a vendor created since the
// cutoff with a total in [lo, hi]
func (r *InvoiceRepository) CountRecentSimilar(ctx context.Context, vendorName string, lo, hi float64, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM invoices
		WHERE vendor_name = ? AND total_amount BETWEEN ? AND ? AND created_at >= ?
	`

	var count int
	if err := executorFrom(ctx, r.db).QueryRowContext(ctx, query, vendorName, lo, hi, since).Scan(&count); err != nil {
		r.logger.Error("Failed to count recent similar invoices",
			zap.String("vendor", vendorName), zap.Error(err))
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return count, nil
}

// List returns stored invoices, newest first
func (r *InvoiceRepository) List(ctx context.Context, limit, offset int) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var invoice entity.Invoice
	var invoiceID, vendorName, country, items sql.NullString
	var invoiceDate, dueDate sql.NullTime
	var subtotal, taxAmount, taxPercentage sql.NullFloat64

	err := row.Scan(
		&invoice.ID,
		&invoiceID,
		&invoiceDate,
		&dueDate,
		&vendorName,
		&country,
		&subtotal,
		&taxAmount,
		&taxPercentage,
		&invoice.TotalAmount,
		&items,
		&invoice.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	invoice.InvoiceID = invoiceID.String
	invoice.VendorName = vendorName.String
	invoice.Country = country.String
	if invoiceDate.Valid {
		invoice.InvoiceDate = &invoiceDate.Time
	}
	if dueDate.Valid {
		invoice.DueDate = &dueDate.Time
	}
	if subtotal.Valid {
		invoice.Subtotal = &subtotal.Float64
	}
	if taxAmount.Valid {
		invoice.TaxAmount = &taxAmount.Float64
	}
	if taxPercentage.Valid {
		invoice.TaxPercentage = &taxPercentage.Float64
	}
	if items.Valid && items.String != "" {
		if err := json.Unmarshal([]byte(items.String), &invoice.LineItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal line items: %w", err)
		}
	}
	return &invoice, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

var _ port.InvoiceRepository = (*InvoiceRepository)(nil)
