package rules

import (
	"fmt"
	"math"
	"strings"

	"github.com/tradegate/invoice-gate/internal/domain/entity"
)

// Tolerance is the absolute rounding tolerance for all monetary and
// rate comparisons (one cent / one hundredth of a percent).
const Tolerance = 0.01

// Tax percentages outside this range are treated as implausible
const (
	minPlausibleTaxRate = 0.0
	maxPlausibleTaxRate = 50.0
)

// RuleSet evaluates invoices against country restrictions and tax
// tables. It is a pure function over its tables: no persistence, and
// the same invoice always yields the same violation list.
type RuleSet struct {
	countryRules map[string]CountryRule
	taxTables    map[string]CountryTaxTable
}

// NewRuleSet builds a rule set from explicit tables
func NewRuleSet(countryRules map[string]CountryRule, taxTables map[string]CountryTaxTable) *RuleSet {
	return &RuleSet{countryRules: countryRules, taxTables: taxTables}
}

// NewDefaultRuleSet builds a rule set from the built-in tables
func NewDefaultRuleSet() *RuleSet {
	return NewRuleSet(DefaultCountryRules(), DefaultTaxTables())
}

// CountryRule returns the restriction rule for a country, if defined
func (r *RuleSet) CountryRule(country string) (CountryRule, bool) {
	rule, ok := r.countryRules[strings.ToLower(country)]
	return rule, ok
}

// Evaluate runs every validation check against the invoice and returns
// the ordered violation list; empty means pass. Checks never short-circuit:
// callers see every problem in one pass.
func (r *RuleSet) Evaluate(invoice *entity.Invoice, country string) []Violation {
	var violations []Violation

	violations = append(violations, r.validateTax(invoice, country)...)
	violations = append(violations, r.validateCountryRules(invoice, country)...)

	return violations
}

// validateTax checks declared tax math. Invoices where any line item
// declares its own tax percentage use the per-item path; otherwise the
// legacy top-level arithmetic applies.
func (r *RuleSet) validateTax(invoice *entity.Invoice, country string) []Violation {
	if invoice.HasItemLevelTax() {
		return r.validateLineItems(invoice, country)
	}
	return validateLegacyTax(invoice)
}

// validateLegacyTax verifies top-level subtotal * rate == tax amount
func validateLegacyTax(invoice *entity.Invoice) []Violation {
	var violations []Violation

	if invoice.Subtotal == nil || invoice.TaxPercentage == nil || invoice.TaxAmount == nil {
		violations = append(violations, Violation{
			Kind:    KindMissingTaxFields,
			Message: "Missing required fields for tax validation: subtotal, tax_percentage, or tax_amount",
		})
		return violations
	}

	subtotal, taxPct, taxAmount := *invoice.Subtotal, *invoice.TaxPercentage, *invoice.TaxAmount

	expected := round2(subtotal * taxPct / 100)
	actual := round2(taxAmount)
	if math.Abs(expected-actual) > Tolerance {
		violations = append(violations, Violation{
			Kind: KindTaxMismatch,
			Message: fmt.Sprintf("Tax calculation mismatch: Expected $%.2f (%g%% of $%.2f), but found $%.2f",
				expected, taxPct, subtotal, actual),
		})
	}

	if taxPct < minPlausibleTaxRate || taxPct > maxPlausibleTaxRate {
		violations = append(violations, Violation{
			Kind:    KindImplausibleTaxRate,
			Message: fmt.Sprintf("Tax rate %g%% seems unreasonable (should be 0-50%%)", taxPct),
		})
	}

	return violations
}

// validateLineItems validates each item's declared rate against the
// authoritative table, each item's internal arithmetic, and the grand
// total. All three checks run for every item.
func (r *RuleSet) validateLineItems(invoice *entity.Invoice, country string) []Violation {
	var violations []Violation
	var itemSum float64

	for i := range invoice.LineItems {
		item := &invoice.LineItems[i]
		itemSum += item.Total

		declaredPct := 0.0
		if item.TaxPercentage != nil {
			declaredPct = *item.TaxPercentage
		}

		resolved, err := r.ResolveTaxRate(country, item.HSCode, item.Description)
		if err != nil {
			// Configuration gap: fail closed, never default the rate.
			violations = append(violations, Violation{
				Kind:    KindNoTaxRule,
				Message: fmt.Sprintf("TAX RULE MISSING: %s", err.Error()),
			})
		} else if math.Abs(declaredPct-resolved.Rate) > Tolerance {
			violations = append(violations, Violation{
				Kind: KindRateMismatch,
				Message: fmt.Sprintf("TAX RATE ERROR: '%s' expected %g%% but found %g%%",
					item.Description, resolved.Rate, declaredPct),
			})
		}

		expectedTotal := item.Subtotal + item.Subtotal*declaredPct/100
		if math.Abs(expectedTotal-item.Total) > Tolerance {
			violations = append(violations, Violation{
				Kind: KindItemTotalMismatch,
				Message: fmt.Sprintf("ITEM TOTAL ERROR: '%s' expected $%.2f ($%.2f + %g%% tax) but found $%.2f",
					item.Description, expectedTotal, item.Subtotal, declaredPct, item.Total),
			})
		}
	}

	if invoice.TotalAmount > 0 && math.Abs(itemSum-invoice.TotalAmount) > Tolerance {
		violations = append(violations, Violation{
			Kind: KindGrandTotalMismatch,
			Message: fmt.Sprintf("GRAND TOTAL ERROR: line items sum to $%.2f but invoice declares $%.2f",
				itemSum, invoice.TotalAmount),
		})
	}

	return violations
}

// validateCountryRules enforces banned keywords and the value ceiling.
// Restricted-item certificates are the certificate validator's concern.
func (r *RuleSet) validateCountryRules(invoice *entity.Invoice, country string) []Violation {
	rule, ok := r.CountryRule(country)
	if !ok {
		return nil
	}

	var violations []Violation

	for i := range invoice.LineItems {
		desc := strings.ToLower(invoice.LineItems[i].Description)
		for _, banned := range rule.BannedKeywords {
			if strings.Contains(desc, banned) {
				violations = append(violations, Violation{
					Kind: KindBannedItem,
					Message: fmt.Sprintf("BANNED: '%s' is prohibited for export to %s",
						invoice.LineItems[i].Description, titleCase(country)),
				})
			}
		}
	}

	if invoice.TotalAmount > 0 && invoice.TotalAmount > rule.MaxValueUSD {
		violations = append(violations, Violation{
			Kind: KindValueCeiling,
			Message: fmt.Sprintf("VALUE LIMIT EXCEEDED: Invoice total $%.2f exceeds maximum allowed $%.0f for %s",
				invoice.TotalAmount, rule.MaxValueUSD, titleCase(country)),
		})
	}

	return violations
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
