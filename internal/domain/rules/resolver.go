package rules

import (
	"fmt"
	"strings"
)

// RateSource describes how a tax rate was resolved
type RateSource string

const (
	SourceHSCode   RateSource = "hs_code"
	SourceCategory RateSource = "category"
)

// ResolvedRate is the outcome of a tax rate lookup
type ResolvedRate struct {
	Rate    float64
	Source  RateSource
	Matched string // the HS prefix or keyword that matched
	Label   string
}

// ErrNoTaxRule reports a configuration gap: the product has no tax rate
// defined for the country. An unknown tax status must surface, never be
// assumed zero.
type ErrNoTaxRule struct {
	Country     string
	HSCode      string
	Description string
}

func (e *ErrNoTaxRule) Error() string {
	return fmt.Sprintf("no tax rate defined for product '%s' (HS: %s) in %s",
		e.Description, e.HSCode, e.Country)
}

// ResolveTaxRate returns the authoritative tax rate for a line item.
// Priority: longest matching HS-code prefix, then first category whose
// keywords match the description, then a configuration-gap error.
func (r *RuleSet) ResolveTaxRate(country, hsCode, description string) (*ResolvedRate, error) {
	table, ok := r.taxTables[strings.ToLower(country)]
	if !ok {
		return nil, &ErrNoTaxRule{Country: country, HSCode: hsCode, Description: description}
	}

	// HS codes are hierarchical: 2-digit chapter, 4-digit heading,
	// 6-digit subheading. Try the full code first, then each shorter
	// prefix, so the most specific definition wins.
	if code := strings.TrimSpace(hsCode); code != "" {
		for prefix := code; len(prefix) >= 2; prefix = prefix[:len(prefix)-1] {
			if hit, ok := table.HSCodeRates[prefix]; ok {
				return &ResolvedRate{
					Rate:    hit.Rate,
					Source:  SourceHSCode,
					Matched: prefix,
					Label:   hit.Label,
				}, nil
			}
		}
	}

	if description != "" {
		desc := strings.ToLower(description)
		for _, category := range table.CategoryOrder {
			cat, ok := table.CategoryRates[category]
			if !ok {
				continue
			}
			for _, keyword := range cat.Keywords {
				if strings.Contains(desc, keyword) {
					return &ResolvedRate{
						Rate:    cat.Rate,
						Source:  SourceCategory,
						Matched: keyword,
						Label:   category,
					}, nil
				}
			}
		}
	}

	return nil, &ErrNoTaxRule{Country: country, HSCode: hsCode, Description: description}
}
