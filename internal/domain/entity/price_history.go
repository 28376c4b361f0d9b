package entity

import "time"

// PriceHistory is one append-only observation of a unit price, recorded
// only for invoices that passed validation. Used as the rolling sample
// for price anomaly comparison.
type PriceHistory struct {
	ID                 int64     `json:"id"`
	HSCode             string    `json:"hs_code,omitempty"`
	ProductDescription string    `json:"product_description"`
	UnitPrice          float64   `json:"unit_price"`
	VendorName         string    `json:"vendor_name,omitempty"`
	Country            string    `json:"country,omitempty"`
	RecordedAt         time.Time `json:"recorded_at"`
}

// PriceStats is the aggregate over a historical price sample
type PriceStats struct {
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}
