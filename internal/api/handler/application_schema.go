package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type submitApplicationRequest struct {
	FirstName   string `json:"first_name"    validate:"required"`
	LastName    string `json:"last_name"     validate:"required"`
	Email       string `json:"email"         validate:"required,email"`
	Phone       string `json:"phone"         validate:"required"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Address     string `json:"address"       validate:"required"`
	City        string `json:"city"          validate:"required"`
	State       string `json:"state"         validate:"required"`
	ZipCode     string `json:"zip_code"      validate:"required"`
	Employment  string `json:"employment_category" validate:"required,oneof=employed self_employed business_owner retired unemployed other"`
	AnnualIncome string `json:"annual_income" validate:"required"`
	LoanAmount   string `json:"loan_amount"   validate:"required"`
	LoanPurpose  string `json:"loan_purpose"  validate:"required"`
}

type lookupApplicationRequest struct {
	ApplicationID string `json:"application_id" validate:"required"`
	Email         string `json:"email"          validate:"required,email"`
}

type transitionRequest struct {
	Status  string `json:"status"  validate:"required"`
	Comment string `json:"comment"`
}

// --- Response types ---
// Response-only types owned by the transport layer, kept separate from
// ports/domain types so the JSON contract is not coupled to internal changes.

type applicationLinks struct {
	Self  string `json:"self"`
	Audit string `json:"audit"`
}

type scoreResponse struct {
	AgeScore          int    `json:"age_score"`
	IncomeScore       int    `json:"income_score"`
	EmploymentScore   int    `json:"employment_score"`
	LoanToIncomeScore int    `json:"loan_to_income_score"`
	TotalScore        int    `json:"total_score"`
	Percentage        string `json:"percentage"`
	Tier              string `json:"tier"`
}

type submitApplicationResponse struct {
	ApplicationID string           `json:"application_id"`
	Status        string           `json:"status"`
	Score         scoreResponse    `json:"score"`
	CreatedAt     time.Time        `json:"created_at"`
	Links         applicationLinks `json:"_links"`
}

type applicantResponse struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Employment   string `json:"employment_category"`
	AnnualIncome string `json:"annual_income"`
	LoanAmount   string `json:"loan_amount"`
	LoanPurpose  string `json:"loan_purpose"`
}

type applicationDetailResponse struct {
	ApplicationID string            `json:"application_id"`
	Status        string            `json:"status"`
	Applicant     applicantResponse `json:"applicant"`
	Score         *scoreResponse    `json:"score,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Links         applicationLinks  `json:"_links"`
}

type transitionResponse struct {
	ApplicationID  string    `json:"application_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	NoOp           bool      `json:"no_op"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type auditEntryResponse struct {
	Sequence  int       `json:"sequence"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	Actor     string    `json:"actor,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// applicationSummaryResponse is the lightweight item used in list responses.
// It intentionally omits the audit trail to keep payloads small.
type applicationSummaryResponse struct {
	ApplicationID string    `json:"application_id"`
	ApplicantName string    `json:"applicant_name"`
	Email         string    `json:"email"`
	Status        string    `json:"status"`
	LoanAmount    string    `json:"loan_amount"`
	Percentage    string    `json:"percentage,omitempty"`
	Tier          string    `json:"tier,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type listApplicationsResponse struct {
	Data       []applicationSummaryResponse `json:"data"`
	Pagination paginationResponse           `json:"pagination"`
}

type statusCountsResponse struct {
	Total       int64 `json:"total"`
	Pending     int64 `json:"pending"`
	UnderReview int64 `json:"under_review"`
	Approved    int64 `json:"approved"`
	Rejected    int64 `json:"rejected"`
}

type monthlyCountResponse struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type statsResponse struct {
	Counts  statusCountsResponse   `json:"counts"`
	Monthly []monthlyCountResponse `json:"monthly_applications"`
}
