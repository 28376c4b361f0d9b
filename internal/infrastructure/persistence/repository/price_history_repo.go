package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/tradegate/invoice-gate/internal/application/port"
	"github.com/tradegate/invoice-gate/internal/domain/entity"
)

// PriceHistoryRepository implements port.PriceHistoryRepository on sqlite
type PriceHistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPriceHistoryRepository creates a new price history repository
func NewPriceHistoryRepository(db *sql.DB, logger *zap.Logger) port.PriceHistoryRepository {
	return &PriceHistoryRepository{db: db, logger: logger}
}

// Append records one price observation
func (r *PriceHistoryRepository) Append(ctx context.Context, record *entity.PriceHistory) error {
	query := `
		INSERT INTO price_histories (hs_code, product_description, unit_price, vendor_name, country, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		nullString(record.HSCode),
		record.ProductDescription,
		record.UnitPrice,
		nullString(record.VendorName),
		nullString(record.Country),
		record.RecordedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append price history", zap.Error(err))
		return fmt.Errorf("failed to append price history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	record.ID = id
	return nil
}

// StatsByHSCode aggregates the price sample for an HS code
func (r *PriceHistoryRepository) StatsByHSCode(ctx context.Context, hsCode string) (*entity.PriceStats, error) {
	query := `
		SELECT COALESCE(AVG(unit_price), 0), COALESCE(MIN(unit_price), 0),
			COALESCE(MAX(unit_price), 0), COUNT(*)
		FROM price_histories
		WHERE hs_code = ?
	`
	return r.stats(ctx, query, hsCode)
}

// StatsByDescription aggregates the price sample for a description prefix
func (r *PriceHistoryRepository) StatsByDescription(ctx context.Context, descriptionPrefix string) (*entity.PriceStats, error) {
	query := `
		SELECT COALESCE(AVG(unit_price), 0), COALESCE(MIN(unit_price), 0),
			COALESCE(MAX(unit_price), 0), COUNT(*)
		FROM price_histories
		WHERE product_description LIKE '%' || ? || '%'
	`
	return r.stats(ctx, query, descriptionPrefix)
}

func (r *PriceHistoryRepository) stats(ctx context.Context, query string, arg interface{}) (*entity.PriceStats, error) {
	var stats entity.PriceStats
	err := executorFrom(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(
		&stats.Avg, &stats.Min, &stats.Max, &stats.Count,
	)
	if err != nil {
		r.logger.Error("Failed to aggregate price history", zap.Error(err))
		return nil, fmt.Errorf("failed to aggregate price history: %w", err)
	}
	return &stats, nil
}

var _ port.PriceHistoryRepository = (*PriceHistoryRepository)(nil)
