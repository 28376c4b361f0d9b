package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/tradegate/invoice-gate/internal/application/port"
	"github.com/tradegate/invoice-gate/internal/domain/entity"
)

// VendorScoreRepository implements port.VendorScoreRepository on sqlite
type VendorScoreRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVendorScoreRepository creates a new vendor score repository
func NewVendorScoreRepository(db *sql.DB, logger *zap.Logger) port.VendorScoreRepository {
	return &VendorScoreRepository{db: db, logger: logger}
}

// GetByName retrieves a vendor's ledger aggregate, nil when unknown
func (r *VendorScoreRepository) GetByName(ctx context.Context, vendorName string) (*entity.VendorScore, error) {
	query := `
		SELECT id, vendor_name, total_invoices, successful_invoices, failed_invoices,
			total_amount_processed, risk_score, last_invoice_date, created_at, updated_at
		FROM vendor_scores
		WHERE vendor_name = ?
	`

	var score entity.VendorScore
	var lastInvoiceDate sql.NullTime

	err := executorFrom(ctx, r.db).QueryRowContext(ctx, query, vendorName).Scan(
		&score.ID,
		&score.VendorName,
		&score.TotalInvoices,
		&score.SuccessfulInvoices,
		&score.FailedInvoices,
		&score.TotalAmountProcessed,
		&score.RiskScore,
		&lastInvoiceDate,
		&score.CreatedAt,
		&score.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get vendor score", zap.String("vendor", vendorName), zap.Error(err))
		return nil, fmt.Errorf("failed to get vendor score: %w", err)
	}

	if lastInvoiceDate.Valid {
		score.LastInvoiceDate = &lastInvoiceDate.Time
	}
	return &score, nil
}

// Save upserts the ledger row keyed by vendor name
func (r *VendorScoreRepository) Save(ctx context.Context, score *entity.VendorScore) error {
	query := `
		INSERT INTO vendor_scores (
			vendor_name, total_invoices, successful_invoices, failed_invoices,
			total_amount_processed, risk_score, last_invoice_date
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(vendor_name) DO UPDATE SET
			total_invoices = excluded.total_invoices,
			successful_invoices = excluded.successful_invoices,
			failed_invoices = excluded.failed_invoices,
			total_amount_processed = excluded.total_amount_processed,
			risk_score = excluded.risk_score,
			last_invoice_date = excluded.last_invoice_date,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		score.VendorName,
		score.TotalInvoices,
		score.SuccessfulInvoices,
		score.FailedInvoices,
		score.TotalAmountProcessed,
		score.RiskScore,
		nullTime(score.LastInvoiceDate),
	)
	if err != nil {
		r.logger.Error("Failed to save vendor score", zap.String("vendor", score.VendorName), zap.Error(err))
		return fmt.Errorf("failed to save vendor score: %w", err)
	}
	return nil
}

var _ port.VendorScoreRepository = (*VendorScoreRepository)(nil)
