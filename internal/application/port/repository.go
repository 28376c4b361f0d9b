package port

import (
	"context"
	"time"

	"github.com/tradegate/invoice-gate/internal/domain/entity"
)

// InvoiceRepository defines persistence operations for stored invoices
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error

	// GetByInvoiceID returns nil, nil when no invoice carries the id
	GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.Invoice, error)

	// CountByAmountAndDate counts stored invoices with the same total and
	// invoice date; vendorName narrows the match when known (empty = any)
	CountByAmountAndDate(ctx context.Context, amount float64, date time.Time, vendorName string) (int, error)

	// CountRecentSimilar counts invoices from the vendor created since the
	// cutoff whose total lies in [lo, hi]
	CountRecentSimilar(ctx context.Context, vendorName string, lo, hi float64, since time.Time) (int, error)

	List(ctx context.Context, limit, offset int) ([]*entity.Invoice, error)
}

// VendorScoreRepository defines persistence operations for the vendor ledger
type VendorScoreRepository interface {
	// GetByName returns nil, nil for an unknown vendor
	GetByName(ctx context.Context, vendorName string) (*entity.VendorScore, error)

	// Save upserts the vendor score keyed by vendor name
	Save(ctx context.Context, score *entity.VendorScore) error
}

// PriceHistoryRepository defines persistence operations for the price ledger
type PriceHistoryRepository interface {
	// Append records one price observation; records are never updated or deleted
	Append(ctx context.Context, record *entity.PriceHistory) error

	// StatsByHSCode aggregates the sample for an HS code
	StatsByHSCode(ctx context.Context, hsCode string) (*entity.PriceStats, error)

	// StatsByDescription aggregates the sample for a description prefix match
	StatsByDescription(ctx context.Context, descriptionPrefix string) (*entity.PriceStats, error)
}

// ApprovalRepository defines persistence operations for approval requests
type ApprovalRepository interface {
	Create(ctx context.Context, request *entity.ApprovalRequest) error

	// GetByID returns nil, nil when the id is unknown
	GetByID(ctx context.Context, id int64) (*entity.ApprovalRequest, error)

	// GetByInvoiceID returns nil, nil when the invoice has no approval record
	GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.ApprovalRequest, error)

	// UpdateIfPending writes the request back only if it is still pending
	// in storage; returns false when a concurrent actor resolved it first
	UpdateIfPending(ctx context.Context, request *entity.ApprovalRequest) (bool, error)

	// ListPending returns pending requests newest first; level 0 = all levels
	ListPending(ctx context.Context, level int) ([]*entity.ApprovalRequest, error)

	CountByStatus(ctx context.Context, status string) (int, error)
	CountPendingByLevel(ctx context.Context) (map[int]int, error)

	// MarkNotificationSent flags that a notification was attempted
	MarkNotificationSent(ctx context.Context, id int64) error
}

// TransactionManager scopes repository operations to one transaction so a
// half-applied decision cannot be observed by a concurrent reader
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}
