package entity

import "time"

// VendorScore is the persisted per-vendor ledger aggregate.
// Created on a vendor's first invoice with a neutral risk score of 50,
// mutated exactly once per invoice outcome, never deleted.
type VendorScore struct {
	ID                   int64      `json:"id"`
	VendorName           string     `json:"vendor_name"`
	TotalInvoices        int        `json:"total_invoices"`
	SuccessfulInvoices   int        `json:"successful_invoices"`
	FailedInvoices       int        `json:"failed_invoices"`
	TotalAmountProcessed float64    `json:"total_amount_processed"`
	RiskScore            float64    `json:"risk_score"` // 0-100, lower is better
	LastInvoiceDate      *time.Time `json:"last_invoice_date,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// SuccessRate returns the historical pass ratio, 0.5 with no history
func (v *VendorScore) SuccessRate() float64 {
	if v.TotalInvoices == 0 {
		return 0.5
	}
	return float64(v.SuccessfulInvoices) / float64(v.TotalInvoices)
}
