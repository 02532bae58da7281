package ports

import (
	"context"
	"time"

	"github.com/loanpro/lending-system/internal/core/domain"
)

// ListApplicationsFilter carries all query parameters for listing applications.
type ListApplicationsFilter struct {
	Status string // optional: filter by application status
	Search string // optional: partial match on applicant name, email or application ID
	Page   int    // 1-based
	Limit  int    // max rows per page (capped by the service)
}

// StatusCounts aggregates applications per review state for the dashboard.
type StatusCounts struct {
	Total       int64
	Pending     int64
	UnderReview int64
	Approved    int64
	Rejected    int64
}

// MonthlyCount is the number of applications submitted in one calendar month.
type MonthlyCount struct {
	Month string // "2006-01"
	Count int64
}

// ApplicationRepository defines persistence operations for the application
// aggregate. The aggregate (profile, score breakdown, audit log) is written
// and deleted as one unit: no operation can leave a status change visible
// without its audit entry or vice versa.
type ApplicationRepository interface {
	// Create persists a new application with its score breakdown and initial
	// audit entries atomically. Returns domain.ErrDuplicateApplication when the
	// application ID is already taken, so callers can regenerate and retry.
	Create(ctx context.Context, app *domain.Application) error

	FindByID(ctx context.Context, applicationID string) (*domain.Application, error)

	// FindByIDAndEmail retrieves an application only when the applicant email
	// matches, for the public status lookup.
	FindByIDAndEmail(ctx context.Context, applicationID, email string) (*domain.Application, error)

	// UpdateStatus atomically sets the new status and updated_at and appends
	// the audit entry, conditioned on the status still being `from` (optimistic
	// concurrency). Returns domain.ErrStatusConflict when the condition fails
	// and domain.ErrApplicationNotFound when the application does not exist.
	UpdateStatus(ctx context.Context, applicationID string, from, to domain.ApplicationStatus, updatedAt time.Time, entry domain.AuditLogEntry) error

	// List returns a page of applications matching filter, newest first, and
	// the total count.
	List(ctx context.Context, filter ListApplicationsFilter) ([]*domain.Application, int64, error)

	// Delete removes the application together with its score breakdown and
	// audit log as one unit.
	Delete(ctx context.Context, applicationID string) error

	CountByStatus(ctx context.Context) (*StatusCounts, error)
	MonthlyCounts(ctx context.Context) ([]MonthlyCount, error)
}

// NotificationOutbox persists applicant-facing status notifications for an
// external delivery process to drain.
type NotificationOutbox interface {
	Enqueue(ctx context.Context, n *domain.StatusNotification) error
}
