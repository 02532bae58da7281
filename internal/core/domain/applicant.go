package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNonPositiveIncome signals a caller contract violation: the intake layer
// guarantees a positive annual income before an application reaches the core.
var ErrNonPositiveIncome = errors.New("annual income must be positive")

// EmploymentCategory classifies the applicant's source of income.
type EmploymentCategory string

const (
	EmploymentEmployed      EmploymentCategory = "employed"
	EmploymentSelfEmployed  EmploymentCategory = "self_employed"
	EmploymentBusinessOwner EmploymentCategory = "business_owner"
	EmploymentRetired       EmploymentCategory = "retired"
	EmploymentUnemployed    EmploymentCategory = "unemployed"
	EmploymentOther         EmploymentCategory = "other"
)

var employmentCategories = map[EmploymentCategory]struct{}{
	EmploymentEmployed:      {},
	EmploymentSelfEmployed:  {},
	EmploymentBusinessOwner: {},
	EmploymentRetired:       {},
	EmploymentUnemployed:    {},
	EmploymentOther:         {},
}

// ParseEmploymentCategory converts a raw string into an EmploymentCategory.
// Unknown values are rejected at the boundary; the scorer still carries a safe
// default in case a legacy record holds an unrecognised category.
func ParseEmploymentCategory(s string) (EmploymentCategory, error) {
	cat := EmploymentCategory(s)
	if _, ok := employmentCategories[cat]; !ok {
		return "", ErrValidation
	}
	return cat, nil
}

// ApplicantProfile holds the applicant attributes captured at intake.
// Immutable once the application is submitted.
type ApplicantProfile struct {
	FirstName   string             `json:"first_name" bson:"first_name"`
	LastName    string             `json:"last_name" bson:"last_name"`
	Email       string             `json:"email" bson:"email"`
	Phone       string             `json:"phone" bson:"phone"`
	DateOfBirth time.Time          `json:"date_of_birth" bson:"date_of_birth"`
	Address     string             `json:"address" bson:"address"`
	City        string             `json:"city" bson:"city"`
	State       string             `json:"state" bson:"state"`
	ZipCode     string             `json:"zip_code" bson:"zip_code"`
	Employment  EmploymentCategory `json:"employment_category" bson:"employment_category"`
	AnnualIncome decimal.Decimal   `json:"annual_income" bson:"-"`
	LoanAmount   decimal.Decimal   `json:"loan_amount" bson:"-"`
	LoanPurpose  string            `json:"loan_purpose" bson:"loan_purpose"`
}

// AgeAt returns the applicant's age in whole years at the given date,
// adjusted down when the birthday has not yet occurred that year.
func (p ApplicantProfile) AgeAt(at time.Time) int {
	years := at.Year() - p.DateOfBirth.Year()
	anniversary := time.Date(at.Year(), p.DateOfBirth.Month(), p.DateOfBirth.Day(), 0, 0, 0, 0, time.UTC)
	if at.Before(anniversary) {
		years--
	}
	return years
}
