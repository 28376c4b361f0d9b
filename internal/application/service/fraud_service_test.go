package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradegate/invoice-gate/internal/domain/entity"
)

func newTestFraudService(invoiceRepo *fakeInvoiceRepo, vendorRepo *fakeVendorRepo, priceRepo *fakePriceRepo, now time.Time) *fraudServiceImpl {
	return &fraudServiceImpl{
		invoiceRepo: invoiceRepo,
		vendorRepo:  vendorRepo,
		priceRepo:   priceRepo,
		logger:      nopLogger{},
		now:         func() time.Time { return now },
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func establishedVendor(name string) *entity.VendorScore {
	return &entity.VendorScore{
		VendorName:         name,
		TotalInvoices:      10,
		SuccessfulInvoices: 10,
	}
}

func detectInvoice() *entity.Invoice {
	return &entity.Invoice{
		InvoiceID:   "INV-2001",
		InvoiceDate: timePtr(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)),
		VendorName:  "Severstal Trading",
		TotalAmount: 11500.50,
	}
}

func TestDetect_CleanInvoiceScoresZero(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestFraudService(
		&fakeInvoiceRepo{},
		&fakeVendorRepo{vendors: map[string]*entity.VendorScore{"Severstal Trading": establishedVendor("Severstal Trading")}},
		&fakePriceRepo{},
		now,
	)

	result, err := svc.Detect(context.Background(), detectInvoice(), "Severstal Trading", "russia")

	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Score)
	assert.Empty(t, result.Flags)
	assert.Equal(t, "LOW", result.RiskLevel())
	assert.Contains(t, result.Details, "vendor_analysis")
}

func TestDetect_ExactDuplicate(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	invoice := detectInvoice()
	svc := newTestFraudService(
		&fakeInvoiceRepo{existing: map[string]*entity.Invoice{invoice.InvoiceID: {InvoiceID: invoice.InvoiceID}}},
		&fakeVendorRepo{vendors: map[string]*entity.VendorScore{"Severstal Trading": establishedVendor("Severstal Trading")}},
		&fakePriceRepo{},
		now,
	)

	result, err := svc.Detect(context.Background(), invoice, "Severstal Trading", "russia")

	require.NoError(t, err)
	assert.Equal(t, entity.WeightExactDuplicate, result.Score)
	require.Len(t, result.Flags, 1)
	assert.Equal(t, entity.FlagExactDuplicate, result.Flags[0].Kind)
	assert.Equal(t, "MEDIUM", result.RiskLevel())
}

func TestDetect_AmountDateDuplicate(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestFraudService(
		&fakeInvoiceRepo{amountDateCount: 1},
		&fakeVendorRepo{vendors: map[string]*entity.VendorScore{"Severstal Trading": establishedVendor("Severstal Trading")}},
		&fakePriceRepo{},
		now,
	)

	result, err := svc.Detect(context.Background(), detectInvoice(), "Severstal Trading", "russia")

	require.NoError(t, err)
	assert.Equal(t, entity.WeightAmountDateDuplicate, result.Score)
	require.Len(t, result.Flags, 1)
	assert.Equal(t, entity.FlagAmountDateDuplicate, result.Flags[0].Kind)
}

func TestDetect_VelocityThreshold(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		similarCount int
		flagged      bool
	}{
		{name: "two similar invoices is tolerated", similarCount: 2, flagged: false},
		{name: "three similar invoices flags", similarCount: 3, flagged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestFraudService(
				&fakeInvoiceRepo{similarCount: tt.similarCount},
				&fakeVendorRepo{vendors: map[string]*entity.VendorScore{"Severstal Trading": establishedVendor("Severstal Trading")}},
				&fakePriceRepo{},
				now,
			)

			result, err := svc.Detect(context.Background(), detectInvoice(), "Severstal Trading", "russia")

			require.NoError(t, err)
			if tt.flagged {
				require.Len(t, result.Flags, 1)
				assert.Equal(t, entity.FlagVelocityDuplicate, result.Flags[0].Kind)
				assert.Equal(t, entity.WeightVelocityDuplicate, result.Score)
			} else {
				assert.Empty(t, result.Flags)
			}
		})
	}
}

func TestDetect_PriceAnomalyBands(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		unitPrice float64
		flags     int
		warnings  int
	}{
		{name: "near the average is quiet", unitPrice: 1100, flags: 0, warnings: 0},
		{name: "moderate deviation warns", unitPrice: 1400, flags: 0, warnings: 1},
		{name: "large deviation flags", unitPrice: 1600, flags: 1, warnings: 0},
		{name: "large drop also flags", unitPrice: 400, flags: 1, warnings: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoice := detectInvoice()
			invoice.LineItems = []entity.LineItem{
				{Description: "Steel Coils", UnitPrice: tt.unitPrice, HSCode: "720851"},
			}
			svc := newTestFraudService(
				&fakeInvoiceRepo{},
				&fakeVendorRepo{vendors: map[string]*entity.VendorScore{"Severstal Trading": establishedVendor("Severstal Trading")}},
				&fakePriceRepo{statsByHS: map[string]*entity.PriceStats{
					"720851": {Avg: 1000, Min: 900, Max: 1100, Count: 5},
				}},
				now,
			)

			result, err := svc.Detect(context.Background(), invoice, "Severstal Trading", "russia")

			require.NoError(t, err)
			assert.Len(t, result.Flags, tt.flags)
			assert.Len(t, result.Warnings, tt.warnings)
			if tt.flags > 0 {
				assert.Equal(t, entity.FlagPriceAnomaly, result.Flags[0].Kind)
			}

			analysis, ok := result.Details["price_analysis"].(map[string]interface{})
			require.True(t, ok)
			assert.Contains(t, analysis, "Steel Coils")
		})
	}
}

func TestDetect_SmallPriceSampleIsNoSignal(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	invoice := detectInvoice()
	invoice.LineItems = []entity.LineItem{
		{Description: "Steel Coils", UnitPrice: 5000, HSCode: "720851"},
	}
	svc := newTestFraudService(
		&fakeInvoiceRepo{},
		&fakeVendorRepo{vendors: map[string]*entity.VendorScore{"Severstal Trading": establishedVendor("Severstal Trading")}},
		&fakePriceRepo{statsByHS: map[string]*entity.PriceStats{
			"720851": {Avg: 1000, Min: 1000, Max: 1000, Count: 2},
		}},
		now,
	)

	result, err := svc.Detect(context.Background(), invoice, "Severstal Trading", "russia")

	require.NoError(t, err)
	assert.Empty(t, result.Flags)
	assert.Empty(t, result.Warnings)
}

func TestDetect_DescriptionPrefixLookupWithoutHSCode(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	invoice := detectInvoice()
	invoice.LineItems = []entity.LineItem{
		{Description: "Steel Coils Hot-Rolled Grade A Extra Long Description", UnitPrice: 2000},
	}
	svc := newTestFraudService(
		&fakeInvoiceRepo{},
		&fakeVendorRepo{vendors: map[string]*entity.VendorScore{"Severstal Trading": establishedVendor("Severstal Trading")}},
		&fakePriceRepo{statsByDesc: map[string]*entity.PriceStats{
			"Steel Coils Hot-Roll": {Avg: 1000, Min: 900, Max: 1100, Count: 4},
		}},
		now,
	)

	result, err := svc.Detect(context.Background(), invoice, "Severstal Trading", "russia")

	require.NoError(t, err)
	require.Len(t, result.Flags, 1)
	assert.Equal(t, entity.FlagPriceAnomaly, result.Flags[0].Kind)
}

func TestDetect_HighRiskVendorFlag(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	// All failures with thin history: 60 base + 15 penalty = 75
	vendor := &entity.VendorScore{
		VendorName:     "Shady Exports",
		TotalInvoices:  3,
		FailedInvoices: 3,
	}
	svc := newTestFraudService(
		&fakeInvoiceRepo{},
		&fakeVendorRepo{vendors: map[string]*entity.VendorScore{"Shady Exports": vendor}},
		&fakePriceRepo{},
		now,
	)

	invoice := detectInvoice()
	invoice.VendorName = "Shady Exports"
	result, err := svc.Detect(context.Background(), invoice, "Shady Exports", "russia")

	require.NoError(t, err)
	require.Len(t, result.Flags, 1)
	assert.Equal(t, entity.FlagHighRiskVendor, result.Flags[0].Kind)
	assert.Equal(t, entity.WeightHighRiskVendor, result.Score)
}

func TestDetect_ModerateVendorWarns(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	// All failures over an established history: plain 60 base
	vendor := &entity.VendorScore{
		VendorName:     "Flaky Exports",
		TotalInvoices:  10,
		FailedInvoices: 10,
	}
	svc := newTestFraudService(
		&fakeInvoiceRepo{},
		&fakeVendorRepo{vendors: map[string]*entity.VendorScore{"Flaky Exports": vendor}},
		&fakePriceRepo{},
		now,
	)

	invoice := detectInvoice()
	result, err := svc.Detect(context.Background(), invoice, "Flaky Exports", "russia")

	require.NoError(t, err)
	assert.Empty(t, result.Flags)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, entity.WarnModerateVendor, result.Warnings[0].Kind)
}

func TestDetect_MissingFields(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestFraudService(&fakeInvoiceRepo{}, &fakeVendorRepo{}, &fakePriceRepo{}, now)

	// No invoice id, no date, no vendor: three missing fields in one flag
	invoice := &entity.Invoice{TotalAmount: 500.25}
	result, err := svc.Detect(context.Background(), invoice, "", "russia")

	require.NoError(t, err)
	require.Len(t, result.Flags, 1)
	assert.Equal(t, entity.FlagMissingFields, result.Flags[0].Kind)
	assert.Equal(t, 3*entity.WeightMissingField, result.Score)
	assert.Contains(t, result.Flags[0].Message, "invoice_id")
	assert.Contains(t, result.Flags[0].Message, "invoice_date")
	assert.Contains(t, result.Flags[0].Message, "vendor/exporter")
}

func TestDetect_RoundAmountWarning(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		amount float64
		warned bool
	}{
		{name: "large whole dollar amount warns", amount: 50000, warned: true},
		{name: "threshold amount warns", amount: 10000, warned: true},
		{name: "below threshold is quiet", amount: 9999, warned: false},
		{name: "cents make it quiet", amount: 50000.25, warned: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestFraudService(
				&fakeInvoiceRepo{},
				&fakeVendorRepo{vendors: map[string]*entity.VendorScore{"Severstal Trading": establishedVendor("Severstal Trading")}},
				&fakePriceRepo{},
				now,
			)

			invoice := detectInvoice()
			invoice.TotalAmount = tt.amount
			result, err := svc.Detect(context.Background(), invoice, "Severstal Trading", "russia")

			require.NoError(t, err)
			var found bool
			for _, w := range result.Warnings {
				if w.Kind == entity.WarnRoundAmount {
					found = true
				}
			}
			assert.Equal(t, tt.warned, found)
		})
	}
}

func TestDetect_ScoreCappedAtHundred(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	// Exact duplicate (40) + amount/date (25) + velocity (15) + high-risk
	// vendor (25) sums past 100 and must cap there.
	vendor := &entity.VendorScore{VendorName: "Shady Exports", TotalInvoices: 3, FailedInvoices: 3}
	svc := newTestFraudService(
		&fakeInvoiceRepo{
			existing:        map[string]*entity.Invoice{"INV-2001": {InvoiceID: "INV-2001"}},
			amountDateCount: 2,
			similarCount:    5,
		},
		&fakeVendorRepo{vendors: map[string]*entity.VendorScore{"Shady Exports": vendor}},
		&fakePriceRepo{},
		now,
	)

	invoice := detectInvoice()
	result, err := svc.Detect(context.Background(), invoice, "Shady Exports", "russia")

	require.NoError(t, err)
	assert.Equal(t, 100.0, result.Score)
	assert.Equal(t, "HIGH", result.RiskLevel())
}

func TestVendorRisk_NewVendorIsNeutral(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestFraudService(&fakeInvoiceRepo{}, &fakeVendorRepo{}, &fakePriceRepo{}, now)

	risk, details, err := svc.VendorRisk(context.Background(), "Unknown Vendor")

	require.NoError(t, err)
	assert.Equal(t, 50.0, risk)
	assert.Contains(t, details, "reason")
}

func TestComputeVendorRisk(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	recent := timePtr(now.AddDate(0, 0, -30))
	dormant := timePtr(now.AddDate(0, 0, -181))

	tests := []struct {
		name     string
		vendor   *entity.VendorScore
		expected float64
	}{
		{
			name:     "perfect record with thin history",
			vendor:   &entity.VendorScore{TotalInvoices: 4, SuccessfulInvoices: 4, LastInvoiceDate: recent},
			expected: 15,
		},
		{
			name:     "exactly five invoices loses the thin history penalty",
			vendor:   &entity.VendorScore{TotalInvoices: 5, SuccessfulInvoices: 5, LastInvoiceDate: recent},
			expected: 0,
		},
		{
			name:     "exactly twenty invoices gets no volume bonus",
			vendor:   &entity.VendorScore{TotalInvoices: 20, SuccessfulInvoices: 10, FailedInvoices: 10, LastInvoiceDate: recent},
			expected: 30,
		},
		{
			name:     "twenty one invoices earns the volume bonus",
			vendor:   &entity.VendorScore{TotalInvoices: 21, SuccessfulInvoices: 14, FailedInvoices: 7, LastInvoiceDate: recent},
			expected: 15,
		},
		{
			name:     "dormant vendor takes the recency penalty",
			vendor:   &entity.VendorScore{TotalInvoices: 10, SuccessfulInvoices: 10, LastInvoiceDate: dormant},
			expected: 10,
		},
		{
			name:     "clamped at zero",
			vendor:   &entity.VendorScore{TotalInvoices: 30, SuccessfulInvoices: 30, LastInvoiceDate: recent},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risk, details := computeVendorRisk(tt.vendor, now)
			assert.InDelta(t, tt.expected, risk, 0.001)
			assert.Contains(t, details, "success_rate")
		})
	}
}
