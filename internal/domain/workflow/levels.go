package workflow

// Review levels: every accepted invoice starts at level 1 and can
// escalate one step per approval up to level 3.
const (
	LevelFrontLine  = 1
	LevelFinance    = 2
	LevelCompliance = 3
)

// Fraud score thresholds that force higher review levels
const (
	financeFraudThreshold    = 40.0
	complianceFraudThreshold = 70.0
)

// LevelConfig describes one review tier
type LevelConfig struct {
	Level     int
	Role      string
	Threshold float64 // amounts above this need at least this level
}

// Levels is the ordered three-tier approval ladder
type Levels [3]LevelConfig

// DefaultLevels returns the standard ladder: every invoice needs
// front-line approval, >$50k finance, >$100k compliance.
func DefaultLevels() Levels {
	return Levels{
		{Level: LevelFrontLine, Role: "Manager", Threshold: 0},
		{Level: LevelFinance, Role: "Finance", Threshold: 50000},
		{Level: LevelCompliance, Role: "Compliance", Threshold: 100000},
	}
}

// Role returns the role label for a level, empty for invalid levels
func (l Levels) Role(level int) string {
	if level < LevelFrontLine || level > LevelCompliance {
		return ""
	}
	return l[level-1].Role
}

// RequiredLevel returns the review level implied by amount and fraud
// score: the maximum of the two signals.
func (l Levels) RequiredLevel(amount, fraudScore float64) int {
	required := LevelFrontLine

	if amount > l[LevelCompliance-1].Threshold {
		required = LevelCompliance
	} else if amount > l[LevelFinance-1].Threshold {
		required = LevelFinance
	}

	if fraudScore >= complianceFraudThreshold && required < LevelCompliance {
		required = LevelCompliance
	} else if fraudScore >= financeFraudThreshold && required < LevelFinance {
		required = LevelFinance
	}

	return required
}

// NeedsEscalation reports whether a pending request at currentLevel must
// move up before it can be finalized. Re-evaluated at every approval
// step; each step advances exactly one level.
func (l Levels) NeedsEscalation(currentLevel int, amount, fraudScore float64) bool {
	return currentLevel < LevelCompliance && l.RequiredLevel(amount, fraudScore) > currentLevel
}
