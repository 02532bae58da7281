package domain

import (
	"errors"
	"time"
)

// ApplicationStatus represents the administrative review state of a loan application.
type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusApproved    ApplicationStatus = "approved"
	StatusRejected    ApplicationStatus = "rejected"
)

// applicationStatuses is the closed set of recognised states. Every state is
// reachable from every other: the review flow is human-correctable, so an
// approved application may be reverted to pending by explicit admin action.
var applicationStatuses = map[ApplicationStatus]struct{}{
	StatusPending:     {},
	StatusUnderReview: {},
	StatusApproved:    {},
	StatusRejected:    {},
}

var ErrApplicationNotFound = errors.New("application not found")
var ErrInvalidStatus = errors.New("invalid application status")
var ErrDuplicateApplication = errors.New("application already exists")
var ErrStatusConflict = errors.New("application status changed concurrently")
var ErrLockNotObtained = errors.New("could not obtain application lock")
var ErrValidation = errors.New("validation failed")
var ErrForbidden = errors.New("access forbidden")

// ParseApplicationStatus converts a raw string into an ApplicationStatus.
// Unknown values are rejected with ErrInvalidStatus rather than defaulted.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	status := ApplicationStatus(s)
	if _, ok := applicationStatuses[status]; !ok {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// AuditAction tags the kind of event recorded in an application's audit trail.
type AuditAction string

const (
	ActionSubmitted          AuditAction = "submitted"
	ActionEligibilityChecked AuditAction = "eligibility_checked"
	ActionStatusUpdated      AuditAction = "status_updated"
)

// AuditLogEntry is one immutable record in an application's history. Entries
// are append-only and are removed only when the owning application is deleted.
// Sequence is a per-application counter: consumers reconstructing history must
// order by it, not by timestamp, since equal-resolution clocks can tie.
type AuditLogEntry struct {
	Sequence  int         `json:"sequence" bson:"sequence"`
	Action    AuditAction `json:"action" bson:"action"`
	Detail    string      `json:"detail" bson:"detail"`
	Actor     string      `json:"actor,omitempty" bson:"actor,omitempty"`
	Timestamp time.Time   `json:"timestamp" bson:"timestamp"`
}

// Application is the core aggregate root. It owns its applicant profile, its
// score breakdown (set exactly once at submission) and its audit log.
type Application struct {
	ApplicationID string            `json:"application_id"`
	Applicant     ApplicantProfile  `json:"applicant"`
	Status        ApplicationStatus `json:"status"`
	Score         *ScoreBreakdown   `json:"score,omitempty"`
	AuditLog      []AuditLogEntry   `json:"audit_log"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
