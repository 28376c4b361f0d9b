package entity

import "time"

// ApprovalRequest is the persisted approval record for one accepted
// invoice. Terminal once Status leaves "pending".
type ApprovalRequest struct {
	ID               int64      `json:"id"`
	InvoiceID        string     `json:"invoice_id"`
	VendorName       string     `json:"vendor_name,omitempty"`
	Country          string     `json:"country,omitempty"`
	TotalAmount      float64    `json:"total_amount"`
	FraudScore       float64    `json:"fraud_score"`
	Status           string     `json:"status"` // pending, approved, rejected
	Level            int        `json:"level"`  // 1..3
	CurrentApprover  string     `json:"current_approver"`
	Comments         string     `json:"comments,omitempty"`
	RejectionReason  string     `json:"rejection_reason,omitempty"`
	ApprovedBy       string     `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	NotificationSent bool       `json:"notification_sent"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// WaitingDays returns whole days elapsed since creation
func (a *ApprovalRequest) WaitingDays(now time.Time) int {
	return int(now.Sub(a.CreatedAt).Hours() / 24)
}

// DashboardStats is the approval workflow dashboard aggregate
type DashboardStats struct {
	TotalPending   int                `json:"total_pending"`
	TotalApproved  int                `json:"total_approved"`
	TotalRejected  int                `json:"total_rejected"`
	PendingByLevel map[string]int     `json:"pending_by_level"`
	Pending        []*ApprovalRequest `json:"pending_approvals"`
	Overdue        []*ApprovalRequest `json:"overdue_approvals"`
}
