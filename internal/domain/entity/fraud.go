package entity

// FlagKind identifies a fraud flag or warning; human text is rendered
// into Message but callers branch on Kind, never on message substrings.
type FlagKind string

const (
	FlagExactDuplicate     FlagKind = "exact_duplicate"
	FlagAmountDateDuplicate FlagKind = "amount_date_duplicate"
	FlagVelocityDuplicate  FlagKind = "velocity_duplicate"
	FlagPriceAnomaly       FlagKind = "price_anomaly"
	FlagHighRiskVendor     FlagKind = "high_risk_vendor"
	FlagMissingFields      FlagKind = "missing_fields"

	WarnPriceDeviation  FlagKind = "price_deviation"
	WarnModerateVendor  FlagKind = "moderate_risk_vendor"
	WarnRoundAmount     FlagKind = "round_amount"
)

// Score weights per flag kind
const (
	WeightExactDuplicate      = 40.0
	WeightAmountDateDuplicate = 25.0
	WeightVelocityDuplicate   = 15.0
	WeightPriceAnomaly        = 20.0
	WeightHighRiskVendor      = 25.0
	WeightMissingField        = 10.0 // per missing field
)

// Risk band boundaries for the composite fraud score
const (
	MediumRiskThreshold = 40.0
	HighRiskThreshold   = 70.0
)

// FraudFlag is one hard fraud indicator with its score contribution
type FraudFlag struct {
	Kind    FlagKind `json:"kind"`
	Message string   `json:"message"`
	Weight  float64  `json:"weight"`
}

// FraudWarning is an informational indicator with no score impact
type FraudWarning struct {
	Kind    FlagKind `json:"kind"`
	Message string   `json:"message"`
}

// FraudResult is the composite fraud detection output
type FraudResult struct {
	Score    float64                `json:"fraud_score"` // 0-100, additive, capped
	Flags    []FraudFlag            `json:"flags"`
	Warnings []FraudWarning         `json:"warnings"`
	Details  map[string]interface{} `json:"details"`
}

// AddFlag records a hard flag and raises the score, capped at 100
func (r *FraudResult) AddFlag(kind FlagKind, message string, weight float64) {
	r.Flags = append(r.Flags, FraudFlag{Kind: kind, Message: message, Weight: weight})
	r.Score += weight
	if r.Score > 100 {
		r.Score = 100
	}
}

// AddWarning records an informational warning
func (r *FraudResult) AddWarning(kind FlagKind, message string) {
	r.Warnings = append(r.Warnings, FraudWarning{Kind: kind, Message: message})
}

// RiskLevel returns the reporting band for the score
func (r *FraudResult) RiskLevel() string {
	switch {
	case r.Score >= HighRiskThreshold:
		return "HIGH"
	case r.Score >= MediumRiskThreshold:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
