package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseApplicationStatus(t *testing.T) {
	for _, s := range []string{"pending", "under_review", "approved", "rejected"} {
		status, err := ParseApplicationStatus(s)
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		if string(status) != s {
			t.Fatalf("%s: got %s", s, status)
		}
	}

	for _, s := range []string{"", "Pending", "archived", "APPROVED"} {
		if _, err := ParseApplicationStatus(s); !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("%q: expected ErrInvalidStatus, got %v", s, err)
		}
	}
}

func TestParseEmploymentCategory(t *testing.T) {
	if _, err := ParseEmploymentCategory("business_owner"); err != nil {
		t.Fatalf("business_owner: %v", err)
	}
	if _, err := ParseEmploymentCategory("astronaut"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAgeAt_BirthdayBoundary(t *testing.T) {
	profile := ApplicantProfile{
		DateOfBirth: time.Date(2000, time.June, 15, 0, 0, 0, 0, time.UTC),
	}

	dayBefore := time.Date(2026, time.June, 14, 0, 0, 0, 0, time.UTC)
	onBirthday := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

	if got := profile.AgeAt(dayBefore); got != 25 {
		t.Fatalf("day before birthday: got %d, want 25", got)
	}
	if got := profile.AgeAt(onBirthday); got != 26 {
		t.Fatalf("on birthday: got %d, want 26", got)
	}
}

func TestTierFromPercentage_InclusiveBounds(t *testing.T) {
	cases := []struct {
		percentage string
		want       EligibilityTier
	}{
		{"100", TierHighlyEligible},
		{"70", TierHighlyEligible},
		{"69.99", TierEligible},
		{"50", TierEligible},
		{"49.99", TierModeratelyEligible},
		{"30", TierModeratelyEligible},
		{"29.99", TierNotEligible},
		{"0", TierNotEligible},
	}
	for _, tc := range cases {
		p, err := decimal.NewFromString(tc.percentage)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.percentage, err)
		}
		if got := TierFromPercentage(p); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.percentage, got, tc.want)
		}
	}
}
