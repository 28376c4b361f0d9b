package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tradegate/invoice-gate/internal/application/port"
	"github.com/tradegate/invoice-gate/internal/domain/entity"
	"github.com/tradegate/invoice-gate/internal/domain/workflow"
)

// Pending requests older than this are reported as overdue
const overdueAfter = 3 * 24 * time.Hour

// Dashboard caps the pending list at the latest entries
const dashboardPendingCap = 20

// Approver is the human contact for one review level
type Approver struct {
	Name  string
	Email string
}

// Roster maps review levels to their approvers. Built once at startup
// from configuration and passed in; there is no global registry.
type Roster map[int]Approver

// ApprovalOutcome reports the result of an approval action
type ApprovalOutcome struct {
	Status       string                  `json:"status"` // escalated, approved, rejected
	Message      string                  `json:"message"`
	NextApprover string                  `json:"next_approver,omitempty"`
	Request      *entity.ApprovalRequest `json:"request"`
}

// ApprovalService owns the approval state machine: level assignment,
// escalation, terminal resolution, and the notification obligation.
type ApprovalService interface {
	CreateRequest(ctx context.Context, request *entity.ApprovalRequest) error
	Approve(ctx context.Context, id int64, approverName, comments string) (*ApprovalOutcome, error)
	Reject(ctx context.Context, id int64, rejectorName, reason string) (*ApprovalOutcome, error)
	ListPending(ctx context.Context, level int) ([]*entity.ApprovalRequest, error)
	Status(ctx context.Context, invoiceID string) (*entity.ApprovalRequest, error)
	Dashboard(ctx context.Context) (*entity.DashboardStats, error)

	// SendNotification delivers the pending-approval notice for the
	// request's current level. Failures are logged, never propagated.
	SendNotification(ctx context.Context, request *entity.ApprovalRequest)
}

type approvalServiceImpl struct {
	approvalRepo port.ApprovalRepository
	notifier     port.ApprovalNotifier
	levels       workflow.Levels
	roster       Roster
	logger       Logger
	now          func() time.Time
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	approvalRepo port.ApprovalRepository,
	notifier port.ApprovalNotifier,
	levels workflow.Levels,
	roster Roster,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		approvalRepo: approvalRepo,
		notifier:     notifier,
		levels:       levels,
		roster:       roster,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateRequest persists a new pending request at the level its amount
// and fraud score require, so a high-value or high-risk invoice lands
// directly with the right reviewer. Approve still re-derives the level
// each step: a stored request below its required level escalates one
// tier at a time rather than skipping any.
func (s *approvalServiceImpl) CreateRequest(ctx context.Context, request *entity.ApprovalRequest) error {
	now := s.now()
	level := s.levels.RequiredLevel(request.TotalAmount, request.FraudScore)
	request.Status = workflow.StatePending.String()
	request.Level = level
	request.CurrentApprover = s.roster[level].Name
	request.CreatedAt = now
	request.UpdatedAt = now

	if err := s.approvalRepo.Create(ctx, request); err != nil {
		s.logger.Error("Failed to create approval request", "error", err, "invoice_id", request.InvoiceID)
		return fmt.Errorf("create approval request: %w", err)
	}

	s.logger.Info("Approval request created",
		"id", request.ID,
		"invoice_id", request.InvoiceID,
		"level", level)
	return nil
}

// Approve records an approval at the request's current level. If amount
// or fraud score requires a higher level, the request escalates one step
// and stays pending; otherwise it becomes terminal.
func (s *approvalServiceImpl) Approve(ctx context.Context, id int64, approverName, comments string) (*ApprovalOutcome, error) {
	request, err := s.approvalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get approval request: %w", err)
	}
	if request == nil {
		return nil, workflow.ErrNotFound
	}
	if workflow.State(request.Status) != workflow.StatePending {
		return nil, fmt.Errorf("%w: invoice already %s", workflow.ErrAlreadyResolved, request.Status)
	}

	now := s.now()
	currentLevel := request.Level

	if s.levels.NeedsEscalation(currentLevel, request.TotalAmount, request.FraudScore) {
		nextLevel := currentLevel + 1
		request.Level = nextLevel
		request.CurrentApprover = s.roster[nextLevel].Name
		request.Comments = appendComment(request.Comments,
			fmt.Sprintf("[%s] Approved at Level %d. %s", approverName, currentLevel, comments))
		request.UpdatedAt = now

		if err := s.writePending(ctx, request); err != nil {
			return nil, err
		}

		s.SendNotification(ctx, request)

		return &ApprovalOutcome{
			Status: "escalated",
			Message: fmt.Sprintf("Approved at Level %d (%s). Escalated to Level %d (%s) for final approval.",
				currentLevel, s.levels.Role(currentLevel), nextLevel, s.levels.Role(nextLevel)),
			NextApprover: request.CurrentApprover,
			Request:      request,
		}, nil
	}

	request.Status = workflow.StateApproved.String()
	request.ApprovedBy = approverName
	request.ApprovedAt = &now
	request.Comments = appendComment(request.Comments,
		fmt.Sprintf("[%s] Final approval. %s", approverName, comments))
	request.UpdatedAt = now

	if err := s.writePending(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info("Approval request approved", "id", id, "approver", approverName)
	return &ApprovalOutcome{
		Status:  workflow.StateApproved.String(),
		Message: fmt.Sprintf("Invoice fully approved by %s", approverName),
		Request: request,
	}, nil
}

// Reject terminates the request regardless of level. A reason is required.
func (s *approvalServiceImpl) Reject(ctx context.Context, id int64, rejectorName, reason string) (*ApprovalOutcome, error) {
	if reason == "" {
		return nil, workflow.ErrEmptyReason
	}

	request, err := s.approvalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get approval request: %w", err)
	}
	if request == nil {
		return nil, workflow.ErrNotFound
	}
	if workflow.State(request.Status) != workflow.StatePending {
		return nil, fmt.Errorf("%w: invoice already %s", workflow.ErrAlreadyResolved, request.Status)
	}

	request.Status = workflow.StateRejected.String()
	request.ApprovedBy = rejectorName
	request.RejectionReason = reason
	request.UpdatedAt = s.now()

	if err := s.writePending(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info("Approval request rejected", "id", id, "rejector", rejectorName, "reason", reason)
	return &ApprovalOutcome{
		Status:  workflow.StateRejected.String(),
		Message: fmt.Sprintf("Invoice rejected by %s", rejectorName),
		Request: request,
	}, nil
}

// writePending persists the mutation only if the stored row is still
// pending, so two approvers cannot both finalize one request
func (s *approvalServiceImpl) writePending(ctx context.Context, request *entity.ApprovalRequest) error {
	ok, err := s.approvalRepo.UpdateIfPending(ctx, request)
	if err != nil {
		return fmt.Errorf("update approval request: %w", err)
	}
	if !ok {
		return workflow.ErrConflict
	}
	return nil
}

// ListPending returns pending requests newest first; level 0 means all
func (s *approvalServiceImpl) ListPending(ctx context.Context, level int) ([]*entity.ApprovalRequest, error) {
	return s.approvalRepo.ListPending(ctx, level)
}

// Status returns the approval record for an invoice, nil when none exists
func (s *approvalServiceImpl) Status(ctx context.Context, invoiceID string) (*entity.ApprovalRequest, error) {
	return s.approvalRepo.GetByInvoiceID(ctx, invoiceID)
}

// Dashboard aggregates workflow statistics: counts by status, pending by
// level, and the overdue subset (pending older than 3 days by creation).
func (s *approvalServiceImpl) Dashboard(ctx context.Context) (*entity.DashboardStats, error) {
	stats := &entity.DashboardStats{PendingByLevel: make(map[string]int)}

	for _, status := range []workflow.State{workflow.StatePending, workflow.StateApproved, workflow.StateRejected} {
		count, err := s.approvalRepo.CountByStatus(ctx, status.String())
		if err != nil {
			return nil, fmt.Errorf("count by status: %w", err)
		}
		switch status {
		case workflow.StatePending:
			stats.TotalPending = count
		case workflow.StateApproved:
			stats.TotalApproved = count
		case workflow.StateRejected:
			stats.TotalRejected = count
		}
	}

	byLevel, err := s.approvalRepo.CountPendingByLevel(ctx)
	if err != nil {
		return nil, fmt.Errorf("count pending by level: %w", err)
	}
	for level := workflow.LevelFrontLine; level <= workflow.LevelCompliance; level++ {
		stats.PendingByLevel[s.levels.Role(level)] = byLevel[level]
	}

	pending, err := s.approvalRepo.ListPending(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}

	cutoff := s.now().Add(-overdueAfter)
	for _, request := range pending {
		if request.CreatedAt.Before(cutoff) {
			stats.Overdue = append(stats.Overdue, request)
		}
	}
	if len(pending) > dashboardPendingCap {
		pending = pending[:dashboardPendingCap]
	}
	stats.Pending = pending

	return stats, nil
}

// SendNotification attempts delivery to the request's current approver
// and records the attempt. Transport failures are logged and swallowed:
// they must never fail the state transition that triggered them.
func (s *approvalServiceImpl) SendNotification(ctx context.Context, request *entity.ApprovalRequest) {
	approver := s.roster[request.Level]

	err := s.notifier.Notify(ctx, port.ApprovalNotification{
		ApprovalID:    request.ID,
		InvoiceID:     request.InvoiceID,
		VendorName:    request.VendorName,
		Country:       request.Country,
		TotalAmount:   request.TotalAmount,
		FraudScore:    request.FraudScore,
		Level:         request.Level,
		ApproverName:  approver.Name,
		ApproverEmail: approver.Email,
		ActionRef:     fmt.Sprintf("/api/approvals/%d", request.ID),
	})
	if errors.Is(err, port.ErrNotifierDisabled) {
		s.logger.Info("Approval notification skipped, notifier disabled",
			"approval_id", request.ID, "level", request.Level)
		return
	}
	if err != nil {
		s.logger.Error("Failed to send approval notification",
			"error", err, "approval_id", request.ID, "level", request.Level)
		return
	}

	if err := s.approvalRepo.MarkNotificationSent(ctx, request.ID); err != nil {
		s.logger.Error("Failed to mark notification sent", "error", err, "approval_id", request.ID)
	}
	request.NotificationSent = true
}

func appendComment(existing, entry string) string {
	if existing == "" {
		return entry
	}
	return existing + "\n" + entry
}
