package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/tradegate/invoice-gate/internal/application/port"
	"github.com/tradegate/invoice-gate/internal/domain/entity"
	"github.com/tradegate/invoice-gate/internal/domain/rules"
)

// Stored vendor risk is recomputed after every invoice with this
// multiplier and no volume/recency adjustments, unlike the on-demand
// query in FraudService. See DESIGN.md for the rationale.
const ledgerRiskBase = 70.0

// Decision is the composite outcome of one invoice submission
type Decision struct {
	Accepted   bool                    `json:"accepted"`
	Violations []rules.Violation       `json:"violations"`
	Fraud      *entity.FraudResult     `json:"fraud"`
	Approval   *entity.ApprovalRequest `json:"approval,omitempty"`
}

// DecisionService runs the full pipeline for a parsed invoice: rule
// evaluation, fraud detection, the accept/reject decision, and the
// ledger/approval side effects of that decision.
type DecisionService interface {
	Process(ctx context.Context, invoice *entity.Invoice, country string) (*Decision, error)
}

type decisionServiceImpl struct {
	ruleSet         *rules.RuleSet
	fraudService    FraudService
	approvalService ApprovalService
	invoiceRepo     port.InvoiceRepository
	vendorRepo      port.VendorScoreRepository
	priceRepo       port.PriceHistoryRepository
	txManager       port.TransactionManager
	logger          Logger
	now             func() time.Time

	// Serializes the vendor ledger read-modify-write per vendor name so
	// concurrent invoices from one vendor cannot lose an update
	vendorLocks sync.Map
}

// NewDecisionService creates a new DecisionService
func NewDecisionService(
	ruleSet *rules.RuleSet,
	fraudService FraudService,
	approvalService ApprovalService,
	invoiceRepo port.InvoiceRepository,
	vendorRepo port.VendorScoreRepository,
	priceRepo port.PriceHistoryRepository,
	txManager port.TransactionManager,
	logger Logger,
) DecisionService {
	return &decisionServiceImpl{
		ruleSet:         ruleSet,
		fraudService:    fraudService,
		approvalService: approvalService,
		invoiceRepo:     invoiceRepo,
		vendorRepo:      vendorRepo,
		priceRepo:       priceRepo,
		txManager:       txManager,
		logger:          logger,
		now:             time.Now,
	}
}

// Process evaluates and decides one invoice. The decision and all its
// side effects commit atomically; notifications go out after commit and
// never affect the decision.
func (s *decisionServiceImpl) Process(ctx context.Context, invoice *entity.Invoice, country string) (*Decision, error) {
	invoice.Country = country
	violations := s.ruleSet.Evaluate(invoice, country)

	// Fraud detection runs even for violated invoices so a reviewer gets
	// the complete picture in one response
	fraud, err := s.fraudService.Detect(ctx, invoice, invoice.VendorName, country)
	if err != nil {
		return nil, fmt.Errorf("fraud detection: %w", err)
	}

	decision := &Decision{
		Accepted:   len(violations) == 0,
		Violations: violations,
		Fraud:      fraud,
	}

	if invoice.VendorName != "" {
		unlock := s.lockVendor(invoice.VendorName)
		defer unlock()
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if decision.Accepted {
			if err := s.invoiceRepo.Create(txCtx, invoice); err != nil {
				return fmt.Errorf("store invoice: %w", err)
			}
			if err := s.recordPrices(txCtx, invoice, country); err != nil {
				return err
			}

			approval := &entity.ApprovalRequest{
				InvoiceID:   invoice.InvoiceID,
				VendorName:  invoice.VendorName,
				Country:     country,
				TotalAmount: invoice.TotalAmount,
				FraudScore:  fraud.Score,
			}
			if err := s.approvalService.CreateRequest(txCtx, approval); err != nil {
				return err
			}
			decision.Approval = approval
		}

		return s.updateVendorLedger(txCtx, invoice.VendorName, decision.Accepted, invoice.TotalAmount)
	})
	if err != nil {
		return nil, err
	}

	if decision.Approval != nil {
		s.approvalService.SendNotification(ctx, decision.Approval)
	}

	s.logger.Info("Invoice decision",
		"invoice_id", invoice.InvoiceID,
		"vendor", invoice.VendorName,
		"country", country,
		"accepted", decision.Accepted,
		"violations", len(violations),
		"fraud_score", fraud.Score)

	return decision, nil
}

// recordPrices appends one price observation per positively-priced line
// item. Only accepted invoices reach here.
func (s *decisionServiceImpl) recordPrices(ctx context.Context, invoice *entity.Invoice, country string) error {
	for i := range invoice.LineItems {
		item := &invoice.LineItems[i]
		if item.UnitPrice <= 0 {
			continue
		}
		record := &entity.PriceHistory{
			HSCode:             item.HSCode,
			ProductDescription: item.Description,
			UnitPrice:          item.UnitPrice,
			VendorName:         invoice.VendorName,
			Country:            country,
			RecordedAt:         s.now(),
		}
		if err := s.priceRepo.Append(ctx, record); err != nil {
			return fmt.Errorf("record price history: %w", err)
		}
	}
	return nil
}

// updateVendorLedger applies exactly one ledger mutation for the decided
// invoice. Failed invoices still add their amount to the processed total.
func (s *decisionServiceImpl) updateVendorLedger(ctx context.Context, vendorName string, passed bool, amount float64) error {
	if vendorName == "" {
		return nil
	}

	vendor, err := s.vendorRepo.GetByName(ctx, vendorName)
	if err != nil {
		return fmt.Errorf("vendor ledger read: %w", err)
	}
	if vendor == nil {
		vendor = &entity.VendorScore{
			VendorName: vendorName,
			RiskScore:  newVendorRisk,
		}
	}

	vendor.TotalInvoices++
	if passed {
		vendor.SuccessfulInvoices++
	} else {
		vendor.FailedInvoices++
	}
	vendor.TotalAmountProcessed += amount
	now := s.now()
	vendor.LastInvoiceDate = &now

	successRate := float64(vendor.SuccessfulInvoices) / float64(vendor.TotalInvoices)
	vendor.RiskScore = math.Max(0, math.Min(100, (1-successRate)*ledgerRiskBase))

	if err := s.vendorRepo.Save(ctx, vendor); err != nil {
		return fmt.Errorf("vendor ledger write: %w", err)
	}
	return nil
}

func (s *decisionServiceImpl) lockVendor(vendorName string) func() {
	mu, _ := s.vendorLocks.LoadOrStore(vendorName, &sync.Mutex{})
	lock := mu.(*sync.Mutex)
	lock.Lock()
	return lock.Unlock
}
