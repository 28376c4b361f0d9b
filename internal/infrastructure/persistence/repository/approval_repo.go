package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/tradegate/invoice-gate/internal/application/port"
	"github.com/tradegate/invoice-gate/internal/domain/entity"
)

// ApprovalRepository implements port.ApprovalRepository on sqlite
type ApprovalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *sql.DB, logger *zap.Logger) port.ApprovalRepository {
	return &ApprovalRepository{db: db, logger: logger}
}

const approvalColumns = `id, invoice_id, vendor_name, country, total_amount, fraud_score,
	status, level, current_approver, comments, rejection_reason, approved_by, approved_at,
	notification_sent, created_at, updated_at`

// Create persists a new approval request
func (r *ApprovalRepository) Create(ctx context.Context, request *entity.ApprovalRequest) error {
	query := `
		INSERT INTO approval_requests (
			invoice_id, vendor_name, country, total_amount, fraud_score,
			status, level, current_approver, comments, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		request.InvoiceID,
		nullString(request.VendorName),
		nullString(request.Country),
		request.TotalAmount,
		request.FraudScore,
		request.Status,
		request.Level,
		nullString(request.CurrentApprover),
		request.Comments,
		request.CreatedAt,
		request.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create approval request", zap.Error(err))
		return fmt.Errorf("failed to create approval request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	request.ID = id
	return nil
}

// GetByID retrieves an approval request, nil when unknown
func (r *ApprovalRepository) GetByID(ctx context.Context, id int64) (*entity.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM approval_requests WHERE id = ?`

	request, err := scanApproval(executorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get approval request", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval request: %w", err)
	}
	return request, nil
}

// GetByInvoiceID retrieves the approval record for an invoice
func (r *ApprovalRepository) GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM approval_requests WHERE invoice_id = ? ORDER BY id DESC LIMIT 1`

	request, err := scanApproval(executorFrom(ctx, r.db).QueryRowContext(ctx, query, invoiceID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get approval request by invoice",
			zap.String("invoice_id", invoiceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval request: %w", err)
	}
	return request, nil
}

// UpdateIfPending writes the request back only while the stored row is
// still pending; returns false when a concurrent actor resolved it first
func (r *ApprovalRepository) UpdateIfPending(ctx context.Context, request *entity.ApprovalRequest) (bool, error) {
	query := `
		UPDATE approval_requests
		SET status = ?, level = ?, current_approver = ?, comments = ?,
			rejection_reason = ?, approved_by = ?, approved_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		request.Status,
		request.Level,
		nullString(request.CurrentApprover),
		request.Comments,
		nullString(request.RejectionReason),
		nullString(request.ApprovedBy),
		nullTime(request.ApprovedAt),
		request.UpdatedAt,
		request.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update approval request", zap.Int64("id", request.ID), zap.Error(err))
		return false, fmt.Errorf("failed to update approval request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected == 1, nil
}

// ListPending returns pending requests newest first; level 0 = all levels
func (r *ApprovalRepository) ListPending(ctx context.Context, level int) ([]*entity.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM approval_requests WHERE status = 'pending'`
	args := []interface{}{}
	if level > 0 {
		query += ` AND level = ?`
		args = append(args, level)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list pending approvals", zap.Error(err))
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	defer rows.Close()

	var requests []*entity.ApprovalRequest
	for rows.Next() {
		request, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval request: %w", err)
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// CountByStatus counts approval requests in a status
func (r *ApprovalRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := executorFrom(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM approval_requests WHERE status = ?`, status).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count approvals by status", zap.String("status", status), zap.Error(err))
		return 0, fmt.Errorf("failed to count approvals: %w", err)
	}
	return count, nil
}

// CountPendingByLevel returns pending counts grouped by level
func (r *ApprovalRepository) CountPendingByLevel(ctx context.Context) (map[int]int, error) {
	rows, err := executorFrom(ctx, r.db).QueryContext(ctx,
		`SELECT level, COUNT(*) FROM approval_requests WHERE status = 'pending' GROUP BY level`)
	if err != nil {
		r.logger.Error("Failed to count pending approvals by level", zap.Error(err))
		return nil, fmt.Errorf("failed to count approvals: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var level, count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("failed to scan level count: %w", err)
		}
		counts[level] = count
	}
	return counts, rows.Err()
}

// MarkNotificationSent flags that a notification was delivered
func (r *ApprovalRepository) MarkNotificationSent(ctx context.Context, id int64) error {
	_, err := executorFrom(ctx, r.db).ExecContext(ctx,
		`UPDATE approval_requests SET notification_sent = 1 WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to mark notification sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

func scanApproval(row rowScanner) (*entity.ApprovalRequest, error) {
	var request entity.ApprovalRequest
	var vendorName, country, currentApprover, rejectionReason, approvedBy sql.NullString
	var approvedAt sql.NullTime

	err := row.Scan(
		&request.ID,
		&request.InvoiceID,
		&vendorName,
		&country,
		&request.TotalAmount,
		&request.FraudScore,
		&request.Status,
		&request.Level,
		&currentApprover,
		&request.Comments,
		&rejectionReason,
		&approvedBy,
		&approvedAt,
		&request.NotificationSent,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	request.VendorName = vendorName.String
	request.Country = country.String
	request.CurrentApprover = currentApprover.String
	request.RejectionReason = rejectionReason.String
	request.ApprovedBy = approvedBy.String
	if approvedAt.Valid {
		request.ApprovedAt = &approvedAt.Time
	}
	return &request, nil
}

var _ port.ApprovalRepository = (*ApprovalRepository)(nil)
