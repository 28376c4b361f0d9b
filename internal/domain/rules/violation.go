package rules

// ViolationKind is the machine-readable discriminator for a validation
// violation. Human text lives in Message and is for display only.
type ViolationKind string

const (
	KindTaxMismatch        ViolationKind = "tax_mismatch"
	KindImplausibleTaxRate ViolationKind = "implausible_tax_rate"
	KindMissingTaxFields   ViolationKind = "missing_tax_fields"
	KindBannedItem         ViolationKind = "banned_item"
	KindValueCeiling       ViolationKind = "value_ceiling"
	KindRateMismatch       ViolationKind = "rate_mismatch"
	KindItemTotalMismatch  ViolationKind = "item_total_mismatch"
	KindGrandTotalMismatch ViolationKind = "grand_total_mismatch"
	KindNoTaxRule          ViolationKind = "no_tax_rule"
)

// Violation is one validation failure. Violations are data, not errors:
// the evaluator accumulates every violation and never stops early.
type Violation struct {
	Kind    ViolationKind `json:"kind"`
	Message string        `json:"message"`
}

// Messages renders a violation list to display strings, preserving order
func Messages(violations []Violation) []string {
	if len(violations) == 0 {
		return nil
	}
	out := make([]string, len(violations))
	for i, v := range violations {
		out[i] = v.Message
	}
	return out
}
