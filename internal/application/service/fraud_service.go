package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tradegate/invoice-gate/internal/application/port"
	"github.com/tradegate/invoice-gate/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Fraud detection tuning constants, matching the documented scoring model
const (
	velocityWindow       = 7 * 24 * time.Hour
	velocityTolerance    = 0.01 // amounts within 1% count as similar
	velocityTripCount    = 2    // more than this many similar invoices flags
	minPriceSample       = 3
	anomalyFlagPercent   = 50.0
	anomalyWarnPercent   = 30.0
	highRiskVendorScore  = 70.0
	moderateVendorScore  = 50.0
	roundAmountThreshold = 10000.0
	descriptionPrefixLen = 20
)

// Vendor risk formula parameters: base from failure rate, adjusted for
// history volume and recency, clamped to [0,100]
const (
	vendorRiskBase          = 60.0
	lowHistoryInvoiceCount  = 5
	lowHistoryPenalty       = 15.0
	highVolumeInvoiceCount  = 20
	highVolumeBonus         = 5.0
	dormantDays             = 180
	dormancyPenalty         = 10.0
	newVendorRisk           = 50.0
)

// FraudService scores an invoice for fraud indicators: duplicate
// detection, price anomaly detection, and vendor risk. It reads the
// ledgers but never writes them; persisting outcomes is the caller's
// decision.
type FraudService interface {
	Detect(ctx context.Context, invoice *entity.Invoice, vendorName, country string) (*entity.FraudResult, error)
	VendorRisk(ctx context.Context, vendorName string) (float64, map[string]interface{}, error)
}

type fraudServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	vendorRepo  port.VendorScoreRepository
	priceRepo   port.PriceHistoryRepository
	logger      Logger
	now         func() time.Time
}

// NewFraudService creates a new FraudService
func NewFraudService(
	invoiceRepo port.InvoiceRepository,
	vendorRepo port.VendorScoreRepository,
	priceRepo port.PriceHistoryRepository,
	logger Logger,
) FraudService {
	return &fraudServiceImpl{
		invoiceRepo: invoiceRepo,
		vendorRepo:  vendorRepo,
		priceRepo:   priceRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// Detect runs all fraud checks and returns the composite result
func (s *fraudServiceImpl) Detect(ctx context.Context, invoice *entity.Invoice, vendorName, country string) (*entity.FraudResult, error) {
	result := &entity.FraudResult{Details: make(map[string]interface{})}

	if err := s.checkDuplicates(ctx, invoice, vendorName, result); err != nil {
		return nil, err
	}

	if len(invoice.LineItems) > 0 {
		if err := s.checkPriceAnomalies(ctx, invoice.LineItems, result); err != nil {
			return nil, err
		}
	}

	vendorRisk, vendorDetails, err := s.VendorRisk(ctx, vendorName)
	if err != nil {
		return nil, err
	}
	result.Details["vendor_analysis"] = vendorDetails

	if vendorRisk >= highRiskVendorScore {
		result.AddFlag(entity.FlagHighRiskVendor,
			fmt.Sprintf("HIGH RISK VENDOR: '%s' has risk score %.1f", vendorName, vendorRisk),
			entity.WeightHighRiskVendor)
	} else if vendorRisk >= moderateVendorScore {
		result.AddWarning(entity.WarnModerateVendor,
			fmt.Sprintf("Vendor '%s' has moderate risk score: %.1f", vendorName, vendorRisk))
	}

	// Whole-dollar totals at scale are worth a second look but are never
	// a flag on their own
	if invoice.TotalAmount >= roundAmountThreshold && invoice.TotalAmount == math.Trunc(invoice.TotalAmount) {
		result.AddWarning(entity.WarnRoundAmount,
			fmt.Sprintf("Round number amount: $%.0f - verify authenticity", invoice.TotalAmount))
	}

	var missing []string
	if invoice.InvoiceID == "" {
		missing = append(missing, "invoice_id")
	}
	if invoice.InvoiceDate == nil {
		missing = append(missing, "invoice_date")
	}
	if vendorName == "" {
		missing = append(missing, "vendor/exporter")
	}
	if len(missing) > 0 {
		result.AddFlag(entity.FlagMissingFields,
			fmt.Sprintf("MISSING FIELDS: %s", strings.Join(missing, ", ")),
			entity.WeightMissingField*float64(len(missing)))
	}

	s.logger.Info("Fraud detection completed",
		"invoice_id", invoice.InvoiceID,
		"fraud_score", result.Score,
		"flags", len(result.Flags),
		"risk_level", result.RiskLevel())

	return result, nil
}

// checkDuplicates looks for exact id matches, amount+date matches, and
// bursts of near-identical amounts from one vendor
func (s *fraudServiceImpl) checkDuplicates(ctx context.Context, invoice *entity.Invoice, vendorName string, result *entity.FraudResult) error {
	if invoice.InvoiceID != "" {
		existing, err := s.invoiceRepo.GetByInvoiceID(ctx, invoice.InvoiceID)
		if err != nil {
			return fmt.Errorf("duplicate lookup: %w", err)
		}
		if existing != nil {
			result.AddFlag(entity.FlagExactDuplicate,
				fmt.Sprintf("DUPLICATE: Invoice ID '%s' already exists", invoice.InvoiceID),
				entity.WeightExactDuplicate)
		}
	}

	if invoice.TotalAmount > 0 && invoice.InvoiceDate != nil {
		count, err := s.invoiceRepo.CountByAmountAndDate(ctx, invoice.TotalAmount, *invoice.InvoiceDate, vendorName)
		if err != nil {
			return fmt.Errorf("amount/date lookup: %w", err)
		}
		if count > 0 {
			result.AddFlag(entity.FlagAmountDateDuplicate,
				fmt.Sprintf("POTENTIAL DUPLICATE: Found %d invoice(s) with same amount ($%.2f) and date (%s)",
					count, invoice.TotalAmount, invoice.InvoiceDate.Format("2006-01-02")),
				entity.WeightAmountDateDuplicate)
		}
	}

	if invoice.TotalAmount > 0 && vendorName != "" {
		tolerance := invoice.TotalAmount * velocityTolerance
		since := s.now().Add(-velocityWindow)
		count, err := s.invoiceRepo.CountRecentSimilar(ctx, vendorName,
			invoice.TotalAmount-tolerance, invoice.TotalAmount+tolerance, since)
		if err != nil {
			return fmt.Errorf("velocity lookup: %w", err)
		}
		if count > velocityTripCount {
			result.AddFlag(entity.FlagVelocityDuplicate,
				fmt.Sprintf("SUSPICIOUS: %d similar invoices from '%s' in last 7 days", count, vendorName),
				entity.WeightVelocityDuplicate)
		}
	}

	return nil
}

// checkPriceAnomalies compares each positive unit price against the
// historical sample. Fewer than minPriceSample records is no signal, not
// an error.
func (s *fraudServiceImpl) checkPriceAnomalies(ctx context.Context, items []entity.LineItem, result *entity.FraudResult) error {
	analysis := make(map[string]interface{})

	for i := range items {
		item := &items[i]
		if item.UnitPrice <= 0 {
			continue
		}

		var stats *entity.PriceStats
		var err error
		if item.HSCode != "" {
			stats, err = s.priceRepo.StatsByHSCode(ctx, item.HSCode)
		} else {
			prefix := item.Description
			if len(prefix) > descriptionPrefixLen {
				prefix = prefix[:descriptionPrefixLen]
			}
			stats, err = s.priceRepo.StatsByDescription(ctx, prefix)
		}
		if err != nil {
			return fmt.Errorf("price history lookup: %w", err)
		}
		if stats == nil || stats.Count < minPriceSample || stats.Avg <= 0 {
			continue
		}

		deviation := math.Abs(item.UnitPrice-stats.Avg) / stats.Avg * 100

		analysis[item.Description] = map[string]interface{}{
			"current_price":     item.UnitPrice,
			"historical_avg":    round2(stats.Avg),
			"historical_min":    round2(stats.Min),
			"historical_max":    round2(stats.Max),
			"deviation_percent": round2(deviation),
			"sample_size":       stats.Count,
		}

		if deviation > anomalyFlagPercent {
			result.AddFlag(entity.FlagPriceAnomaly,
				fmt.Sprintf("HIGH PRICE ANOMALY: '%s' price $%.2f is %.1f%% different from average $%.2f (based on %d records)",
					item.Description, item.UnitPrice, deviation, stats.Avg, stats.Count),
				entity.WeightPriceAnomaly)
		} else if deviation > anomalyWarnPercent {
			result.AddWarning(entity.WarnPriceDeviation,
				fmt.Sprintf("PRICE WARNING: '%s' price $%.2f deviates %.1f%% from average $%.2f",
					item.Description, item.UnitPrice, deviation, stats.Avg))
		}
	}

	result.Details["price_analysis"] = analysis
	return nil
}

// VendorRisk returns the on-demand risk estimate for a vendor along with
// the factors behind it. Unknown vendors sit at the neutral 50.
func (s *fraudServiceImpl) VendorRisk(ctx context.Context, vendorName string) (float64, map[string]interface{}, error) {
	if vendorName == "" {
		return newVendorRisk, map[string]interface{}{"reason": "No vendor name provided"}, nil
	}

	vendor, err := s.vendorRepo.GetByName(ctx, vendorName)
	if err != nil {
		return 0, nil, fmt.Errorf("vendor lookup: %w", err)
	}
	if vendor == nil {
		return newVendorRisk, map[string]interface{}{
			"reason":         "New vendor - no history",
			"recommendation": "First invoice from this vendor, apply standard scrutiny",
		}, nil
	}

	risk, details := computeVendorRisk(vendor, s.now())
	return risk, details, nil
}

// computeVendorRisk derives the on-demand risk score from the ledger
// aggregate. Note this uses a x60 base with volume/recency adjustments,
// unlike the x70 recompute stored after each invoice.
func computeVendorRisk(vendor *entity.VendorScore, now time.Time) (float64, map[string]interface{}) {
	details := map[string]interface{}{
		"total_invoices":         vendor.TotalInvoices,
		"successful_invoices":    vendor.SuccessfulInvoices,
		"failed_invoices":        vendor.FailedInvoices,
		"total_amount_processed": vendor.TotalAmountProcessed,
	}
	if vendor.LastInvoiceDate != nil {
		details["last_invoice_date"] = vendor.LastInvoiceDate.Format(time.RFC3339)
	}

	successRate := vendor.SuccessRate()
	details["success_rate"] = fmt.Sprintf("%.1f%%", successRate*100)

	risk := (1 - successRate) * vendorRiskBase

	if vendor.TotalInvoices < lowHistoryInvoiceCount {
		risk += lowHistoryPenalty
		details["volume_note"] = "Limited history - score less reliable"
	} else if vendor.TotalInvoices > highVolumeInvoiceCount {
		risk -= highVolumeBonus
		details["volume_note"] = "Established vendor with good history"
	}

	if vendor.LastInvoiceDate != nil {
		daysSince := int(now.Sub(*vendor.LastInvoiceDate).Hours() / 24)
		if daysSince > dormantDays {
			risk += dormancyPenalty
			details["recency_note"] = fmt.Sprintf("No invoices in %d days", daysSince)
		}
	}

	risk = math.Max(0, math.Min(100, risk))
	details["calculated_risk_score"] = round2(risk)
	return risk, details
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
