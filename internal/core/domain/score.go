package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EligibilityTier is the coarse classification derived from the percentage score.
type EligibilityTier string

const (
	TierHighlyEligible     EligibilityTier = "highly_eligible"
	TierEligible           EligibilityTier = "eligible"
	TierModeratelyEligible EligibilityTier = "moderately_eligible"
	TierNotEligible        EligibilityTier = "not_eligible"
)

// TierFromPercentage maps a percentage score onto an eligibility tier.
// Band lower bounds are inclusive.
func TierFromPercentage(percentage decimal.Decimal) EligibilityTier {
	switch {
	case percentage.GreaterThanOrEqual(decimal.NewFromInt(70)):
		return TierHighlyEligible
	case percentage.GreaterThanOrEqual(decimal.NewFromInt(50)):
		return TierEligible
	case percentage.GreaterThanOrEqual(decimal.NewFromInt(30)):
		return TierModeratelyEligible
	default:
		return TierNotEligible
	}
}

// ScoreBreakdown is the output of the eligibility scorer. Produced exactly once
// per application at submission and never mutated; a re-score would produce a
// new breakdown, not an edit.
//
// The rubric maxima (25 + 30 + 25 + 20) sum to 100, so Percentage carries the
// same value as TotalScore by construction. That identity is preserved, not
// re-derived from a different denominator.
type ScoreBreakdown struct {
	AgeScore          int             `json:"age_score" bson:"age_score"`
	IncomeScore       int             `json:"income_score" bson:"income_score"`
	EmploymentScore   int             `json:"employment_score" bson:"employment_score"`
	LoanToIncomeScore int             `json:"loan_to_income_score" bson:"loan_to_income_score"`
	TotalScore        int             `json:"total_score" bson:"total_score"`
	Percentage        decimal.Decimal `json:"percentage" bson:"-"`
	Tier              EligibilityTier `json:"tier" bson:"tier"`
	CheckedAt         time.Time       `json:"checked_at" bson:"checked_at"`
}
