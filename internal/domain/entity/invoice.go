package entity

import "time"

// LineItem is a single invoice line in normalized form. The same
// representation is used from parsing through fraud detection and
// ledger writes.
type LineItem struct {
	Description   string   `json:"description"`
	Quantity      float64  `json:"quantity"`
	UnitPrice     float64  `json:"unit_price"`
	Subtotal      float64  `json:"subtotal"`
	TaxPercentage *float64 `json:"tax_percentage,omitempty"` // nil when the item does not declare its own rate
	TaxAmount     float64  `json:"tax_amount,omitempty"`
	Total         float64  `json:"total"`
	HSCode        string   `json:"hs_code,omitempty"`
}

// HasOwnTaxRate reports whether the item declares a per-item tax percentage
func (li *LineItem) HasOwnTaxRate() bool {
	return li.TaxPercentage != nil
}

// Invoice is the parsed invoice record handed to the pipeline.
// The top-level tax fields are the legacy format; when any line item
// carries its own tax percentage they are advisory only.
type Invoice struct {
	ID            int64      `json:"id,omitempty"`
	InvoiceID     string     `json:"invoice_id,omitempty"`
	InvoiceDate   *time.Time `json:"invoice_date,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	VendorName    string     `json:"vendor_name,omitempty"`
	Country       string     `json:"country,omitempty"` // destination country, set by the pipeline on submission
	Subtotal      *float64   `json:"subtotal,omitempty"`
	TaxAmount     *float64   `json:"tax_amount,omitempty"`
	TaxPercentage *float64   `json:"tax_percentage,omitempty"`
	TotalAmount   float64    `json:"total_amount"`
	LineItems     []LineItem `json:"line_items,omitempty"`
	CreatedAt     time.Time  `json:"created_at,omitempty"`
}

// HasItemLevelTax reports whether any line item declares its own tax
// percentage, which switches validation to the per-item path.
func (inv *Invoice) HasItemLevelTax() bool {
	for i := range inv.LineItems {
		if inv.LineItems[i].HasOwnTaxRate() {
			return true
		}
	}
	return false
}
