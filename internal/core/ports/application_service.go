package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loanpro/lending-system/internal/core/domain"
)

// SubmitApplicationInput carries all intake data for a new loan application.
// The transport layer has already enforced the intake contract (age 18-80,
// loan amount within bounds, income at or above the minimum) before this
// reaches the service.
type SubmitApplicationInput struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	DateOfBirth  time.Time
	Address      string
	City         string
	State        string
	ZipCode      string
	Employment   string
	AnnualIncome decimal.Decimal
	LoanAmount   decimal.Decimal
	LoanPurpose  string
}

// ScoreView is the score breakdown exposed to callers.
type ScoreView struct {
	AgeScore          int             `json:"age_score"`
	IncomeScore       int             `json:"income_score"`
	EmploymentScore   int             `json:"employment_score"`
	LoanToIncomeScore int             `json:"loan_to_income_score"`
	TotalScore        int             `json:"total_score"`
	Percentage        decimal.Decimal `json:"percentage"`
	Tier              string          `json:"tier"`
}

// SubmitResult is returned after a successful submission.
type SubmitResult struct {
	ApplicationID string
	Status        string
	Score         ScoreView
	CreatedAt     time.Time
}

// ApplicantView is the applicant profile as exposed on the status page.
type ApplicantView struct {
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Employment   string          `json:"employment_category"`
	AnnualIncome decimal.Decimal `json:"annual_income"`
	LoanAmount   decimal.Decimal `json:"loan_amount"`
	LoanPurpose  string          `json:"loan_purpose"`
}

// ApplicationDetail is the full application view. The audit trail is served
// separately and only to back-office roles.
type ApplicationDetail struct {
	ApplicationID string
	Status        string
	Applicant     ApplicantView
	Score         *ScoreView
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TransitionInput is a request to move an application to another review state.
type TransitionInput struct {
	ApplicationID   string
	RequestedStatus string
	Comment         string
	Actor           domain.ActorContext
}

// TransitionResult reports the applied transition.
type TransitionResult struct {
	ApplicationID  string
	PreviousStatus string
	NewStatus      string
	// NoOp is true when the requested status equalled the current one. The
	// transition is still logged and updated_at still advances.
	NoOp      bool
	UpdatedAt time.Time
}

// ListApplicationsInput carries all parameters for the admin list endpoint.
type ListApplicationsInput struct {
	Status string
	Search string
	Page   int
	Limit  int
	Actor  domain.ActorContext
}

// ApplicationSummary is the lightweight view used in list responses.
type ApplicationSummary struct {
	ApplicationID string
	ApplicantName string
	Email         string
	Status        string
	LoanAmount    decimal.Decimal
	Percentage    decimal.Decimal
	Tier          string
	CreatedAt     time.Time
}

// ListApplicationsResult is returned by List.
type ListApplicationsResult struct {
	Items      []ApplicationSummary
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// DashboardStats feeds the admin dashboard.
type DashboardStats struct {
	Counts  StatusCounts
	Monthly []MonthlyCount
}

// ApplicationService defines the use-case operations over loan applications.
type ApplicationService interface {
	Submit(ctx context.Context, input SubmitApplicationInput) (*SubmitResult, error)
	Get(ctx context.Context, applicationID string) (*ApplicationDetail, error)
	Lookup(ctx context.Context, applicationID, email string) (*ApplicationDetail, error)
	Transition(ctx context.Context, input TransitionInput) (*TransitionResult, error)
	List(ctx context.Context, input ListApplicationsInput) (*ListApplicationsResult, error)
	AuditTrail(ctx context.Context, applicationID string, actor domain.ActorContext) ([]domain.AuditLogEntry, error)
	Delete(ctx context.Context, applicationID string, actor domain.ActorContext) error
	Stats(ctx context.Context, actor domain.ActorContext) (*DashboardStats, error)
}
