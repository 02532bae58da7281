package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/loanpro/lending-system/internal/core/domain"
)

// Rubric maxima: 25 (age) + 30 (income) + 25 (employment) + 20 (ratio) = 100.
var (
	incomeBand30 = decimal.NewFromInt(1_000_000)
	incomeBand25 = decimal.NewFromInt(500_000)
	incomeBand20 = decimal.NewFromInt(300_000)
	incomeBand15 = decimal.NewFromInt(200_000)

	ratioBand20 = decimal.NewFromInt(3)
	ratioBand15 = decimal.NewFromInt(5)
	ratioBand10 = decimal.NewFromInt(8)
)

var employmentScores = map[domain.EmploymentCategory]int{
	domain.EmploymentEmployed:      25,
	domain.EmploymentBusinessOwner: 22,
	domain.EmploymentSelfEmployed:  20,
	domain.EmploymentRetired:       15,
	domain.EmploymentUnemployed:    5,
}

// EligibilityScorer converts applicant attributes into a score breakdown and
// tier against a fixed, versioned rubric. It is pure: no I/O, no side effects,
// and the same profile and evaluation date always produce the same breakdown.
type EligibilityScorer struct{}

func NewEligibilityScorer() *EligibilityScorer {
	return &EligibilityScorer{}
}

// Score evaluates the four rubric factors independently and sums them.
// The only failure path is a non-positive annual income, which the intake
// contract forbids; it is reported explicitly rather than crashing on the
// ratio division.
func (s *EligibilityScorer) Score(profile domain.ApplicantProfile, at time.Time) (domain.ScoreBreakdown, error) {
	if !profile.AnnualIncome.IsPositive() {
		return domain.ScoreBreakdown{}, domain.ErrNonPositiveIncome
	}

	breakdown := domain.ScoreBreakdown{
		AgeScore:          ageScore(profile.AgeAt(at)),
		IncomeScore:       incomeScore(profile.AnnualIncome),
		EmploymentScore:   employmentScore(profile.Employment),
		LoanToIncomeScore: loanToIncomeScore(profile.LoanAmount, profile.AnnualIncome),
		CheckedAt:         at,
	}

	breakdown.TotalScore = breakdown.AgeScore + breakdown.IncomeScore +
		breakdown.EmploymentScore + breakdown.LoanToIncomeScore
	// The rubric maxima already normalise the total to 100, so the percentage
	// is the total itself, carried at two-decimal precision.
	breakdown.Percentage = decimal.New(int64(breakdown.TotalScore)*100, -2)
	breakdown.Tier = domain.TierFromPercentage(breakdown.Percentage)

	return breakdown, nil
}

func ageScore(age int) int {
	switch {
	case age >= 25 && age <= 55:
		return 25
	case age >= 18 && age <= 65:
		return 20
	default:
		return 10
	}
}

func incomeScore(income decimal.Decimal) int {
	switch {
	case income.GreaterThanOrEqual(incomeBand30):
		return 30
	case income.GreaterThanOrEqual(incomeBand25):
		return 25
	case income.GreaterThanOrEqual(incomeBand20):
		return 20
	case income.GreaterThanOrEqual(incomeBand15):
		return 15
	default:
		return 10
	}
}

func employmentScore(category domain.EmploymentCategory) int {
	if score, ok := employmentScores[category]; ok {
		return score
	}
	// Unrecognised categories (including "other") score a neutral 10.
	return 10
}

func loanToIncomeScore(loan, income decimal.Decimal) int {
	ratio := loan.Div(income)
	switch {
	case ratio.LessThanOrEqual(ratioBand20):
		return 20
	case ratio.LessThanOrEqual(ratioBand15):
		return 15
	case ratio.LessThanOrEqual(ratioBand10):
		return 10
	default:
		return 5
	}
}
