package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/loanpro/lending-system/internal/api/metrics"
	"github.com/loanpro/lending-system/internal/core/domain"
	"github.com/loanpro/lending-system/internal/core/ports"
)

const (
	maxIDAttempts = 5
	defaultLimit  = 20
	maxLimit      = 100
)

// ApplicationLocker serializes mutations per application identifier. Unrelated
// applications proceed in parallel; two operations on the same identifier do not.
type ApplicationLocker interface {
	// Acquire blocks the identifier and returns a release func. Returns
	// domain.ErrLockNotObtained when the lock is held elsewhere.
	Acquire(ctx context.Context, applicationID string) (release func(), err error)
}

// NotificationDispatcher decouples transition commits from applicant
// notification delivery.
type NotificationDispatcher interface {
	Enqueue(n domain.StatusNotification)
}

// ApplicationService implements the submission and lifecycle use cases.
type ApplicationService struct {
	repo   ports.ApplicationRepository
	scorer *EligibilityScorer
	locker ApplicationLocker
	notify NotificationDispatcher // optional
	logger zerolog.Logger
	now    func() time.Time
}

func NewApplicationService(
	repo ports.ApplicationRepository,
	scorer *EligibilityScorer,
	locker ApplicationLocker,
	notify NotificationDispatcher,
	logger zerolog.Logger,
) *ApplicationService {
	return &ApplicationService{
		repo:   repo,
		scorer: scorer,
		locker: locker,
		notify: notify,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Submit creates a new application in pending state, scores it exactly once
// and persists the aggregate (profile, breakdown, two audit entries) as one
// unit. The submitted entry always precedes the eligibility_checked entry by
// sequence number, independent of clock resolution.
func (s *ApplicationService) Submit(ctx context.Context, input ports.SubmitApplicationInput) (*ports.SubmitResult, error) {
	category, err := domain.ParseEmploymentCategory(input.Employment)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown employment category %q", domain.ErrValidation, input.Employment)
	}

	profile := domain.ApplicantProfile{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:        strings.TrimSpace(input.Phone),
		DateOfBirth:  input.DateOfBirth,
		Address:      strings.TrimSpace(input.Address),
		City:         strings.TrimSpace(input.City),
		State:        input.State,
		ZipCode:      strings.TrimSpace(input.ZipCode),
		Employment:   category,
		AnnualIncome: input.AnnualIncome,
		LoanAmount:   input.LoanAmount,
		LoanPurpose:  input.LoanPurpose,
	}

	now := s.now()
	started := time.Now()
	breakdown, err := s.scorer.Score(profile, now)
	if err != nil {
		// Intake guarantees a positive income; reaching this is caller misuse.
		return nil, fmt.Errorf("submit: %w", err)
	}
	metrics.ScoringDuration.Observe(time.Since(started).Seconds())

	app := &domain.Application{
		Applicant: profile,
		Status:    domain.StatusPending,
		Score:     &breakdown,
		CreatedAt: now,
		UpdatedAt: now,
		AuditLog: []domain.AuditLogEntry{
			{
				Sequence:  1,
				Action:    domain.ActionSubmitted,
				Detail:    "new loan application submitted",
				Timestamp: now,
			},
			{
				Sequence:  2,
				Action:    domain.ActionEligibilityChecked,
				Detail:    fmt.Sprintf("eligibility calculated: %s%% (%s)", breakdown.Percentage.StringFixed(2), breakdown.Tier),
				Timestamp: now,
			},
		},
	}

	// The identifier is random-suffixed but not assumed unique by construction:
	// a duplicate-key insert regenerates and retries.
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		app.ApplicationID = generateApplicationID(now)

		release, err := s.locker.Acquire(ctx, app.ApplicationID)
		if err != nil {
			return nil, fmt.Errorf("submit: %w", err)
		}
		err = s.repo.Create(ctx, app)
		release()

		if errors.Is(err, domain.ErrDuplicateApplication) {
			continue
		}
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to create application")
			return nil, fmt.Errorf("submit: %w", err)
		}

		metrics.ApplicationsSubmittedTotal.WithLabelValues(string(breakdown.Tier)).Inc()
		s.logger.Info().
			Str("application_id", app.ApplicationID).
			Str("tier", string(breakdown.Tier)).
			Int("total_score", breakdown.TotalScore).
			Msg("application submitted")

		return &ports.SubmitResult{
			ApplicationID: app.ApplicationID,
			Status:        string(app.Status),
			Score:         toScoreView(&breakdown),
			CreatedAt:     app.CreatedAt,
		}, nil
	}

	return nil, fmt.Errorf("submit: exhausted %d attempts: %w", maxIDAttempts, domain.ErrDuplicateApplication)
}

// Transition moves an application to the requested review state. The status
// write and the audit append land atomically; a same-state request is a logged
// no-op: the status is unchanged but updated_at advances and an audit entry is
// still recorded.
func (s *ApplicationService) Transition(ctx context.Context, input ports.TransitionInput) (*ports.TransitionResult, error) {
	requested, err := domain.ParseApplicationStatus(input.RequestedStatus)
	if err != nil {
		metrics.TransitionErrorsTotal.WithLabelValues("invalid_status").Inc()
		return nil, fmt.Errorf("transition to %q: %w", input.RequestedStatus, err)
	}
	if err := requireReviewer(input.Actor); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, input.ApplicationID)
	if err != nil {
		metrics.TransitionErrorsTotal.WithLabelValues("lock_not_obtained").Inc()
		return nil, fmt.Errorf("transition: %w", err)
	}
	defer release()

	app, err := s.repo.FindByID(ctx, input.ApplicationID)
	if err != nil {
		metrics.TransitionErrorsTotal.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("transition: %w", err)
	}

	prior := app.Status
	now := s.now()

	detail := fmt.Sprintf("status changed from %s to %s", prior, requested)
	if input.Comment != "" {
		detail += "; comment: " + input.Comment
	}
	entry := domain.AuditLogEntry{
		Sequence:  len(app.AuditLog) + 1,
		Action:    domain.ActionStatusUpdated,
		Detail:    detail,
		Actor:     input.Actor.Username,
		Timestamp: now,
	}

	if err := s.repo.UpdateStatus(ctx, input.ApplicationID, prior, requested, now, entry); err != nil {
		metrics.TransitionErrorsTotal.WithLabelValues("update_failed").Inc()
		return nil, fmt.Errorf("transition: %w", err)
	}

	metrics.TransitionsTotal.WithLabelValues(string(prior), string(requested)).Inc()
	s.logger.Info().
		Str("application_id", input.ApplicationID).
		Str("from", string(prior)).
		Str("to", string(requested)).
		Str("actor", input.Actor.Username).
		Msg("application status updated")

	if s.notify != nil && prior != requested {
		s.notify.Enqueue(domain.StatusNotification{
			ApplicationID: input.ApplicationID,
			Email:         app.Applicant.Email,
			OldStatus:     prior,
			NewStatus:     requested,
			Comment:       input.Comment,
			OccurredAt:    now,
		})
	}

	return &ports.TransitionResult{
		ApplicationID:  input.ApplicationID,
		PreviousStatus: string(prior),
		NewStatus:      string(requested),
		NoOp:           prior == requested,
		UpdatedAt:      now,
	}, nil
}

// Get returns the applicant-facing view of an application.
func (s *ApplicationService) Get(ctx context.Context, applicationID string) (*ports.ApplicationDetail, error) {
	app, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return toDetail(app), nil
}

// Lookup retrieves an application only when the applicant email matches.
func (s *ApplicationService) Lookup(ctx context.Context, applicationID, email string) (*ports.ApplicationDetail, error) {
	app, err := s.repo.FindByIDAndEmail(ctx, applicationID, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	return toDetail(app), nil
}

// List returns a page of application summaries for the back office.
func (s *ApplicationService) List(ctx context.Context, input ports.ListApplicationsInput) (*ports.ListApplicationsResult, error) {
	if err := requireReviewer(input.Actor); err != nil {
		return nil, err
	}
	if input.Status != "" {
		if _, err := domain.ParseApplicationStatus(input.Status); err != nil {
			return nil, fmt.Errorf("list filter %q: %w", input.Status, err)
		}
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	page := input.Page
	if page <= 0 {
		page = 1
	}

	apps, total, err := s.repo.List(ctx, ports.ListApplicationsFilter{
		Status: input.Status,
		Search: input.Search,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	items := make([]ports.ApplicationSummary, 0, len(apps))
	for _, app := range apps {
		items = append(items, toSummary(app))
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListApplicationsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// AuditTrail returns the full append-only history of an application, ordered
// by sequence number.
func (s *ApplicationService) AuditTrail(ctx context.Context, applicationID string, actor domain.ActorContext) ([]domain.AuditLogEntry, error) {
	if err := requireReviewer(actor); err != nil {
		return nil, err
	}
	app, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return app.AuditLog, nil
}

// Delete removes the application and everything it owns (score breakdown,
// audit log) as one explicit unit. Admin only.
func (s *ApplicationService) Delete(ctx context.Context, applicationID string, actor domain.ActorContext) error {
	if actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}

	release, err := s.locker.Acquire(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	defer release()

	if err := s.repo.Delete(ctx, applicationID); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	s.logger.Info().
		Str("application_id", applicationID).
		Str("actor", actor.Username).
		Msg("application deleted")
	return nil
}

// Stats aggregates dashboard figures for the back office.
func (s *ApplicationService) Stats(ctx context.Context, actor domain.ActorContext) (*ports.DashboardStats, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	monthly, err := s.repo.MonthlyCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	return &ports.DashboardStats{Counts: *counts, Monthly: monthly}, nil
}

func requireReviewer(actor domain.ActorContext) error {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleReviewer {
		return domain.ErrForbidden
	}
	return nil
}

// generateApplicationID returns an identifier in the format LA<yyyymmdd><8 hex>.
// Human-shareable and collision-unlikely, but uniqueness is still enforced by
// the repository's unique index.
func generateApplicationID(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "LA" + at.Format("20060102") + suffix[:8]
}

func toScoreView(b *domain.ScoreBreakdown) ports.ScoreView {
	return ports.ScoreView{
		AgeScore:          b.AgeScore,
		IncomeScore:       b.IncomeScore,
		EmploymentScore:   b.EmploymentScore,
		LoanToIncomeScore: b.LoanToIncomeScore,
		TotalScore:        b.TotalScore,
		Percentage:        b.Percentage,
		Tier:              string(b.Tier),
	}
}

func toDetail(app *domain.Application) *ports.ApplicationDetail {
	detail := &ports.ApplicationDetail{
		ApplicationID: app.ApplicationID,
		Status:        string(app.Status),
		Applicant: ports.ApplicantView{
			FirstName:    app.Applicant.FirstName,
			LastName:     app.Applicant.LastName,
			Email:        app.Applicant.Email,
			Phone:        app.Applicant.Phone,
			Employment:   string(app.Applicant.Employment),
			AnnualIncome: app.Applicant.AnnualIncome,
			LoanAmount:   app.Applicant.LoanAmount,
			LoanPurpose:  app.Applicant.LoanPurpose,
		},
		CreatedAt: app.CreatedAt,
		UpdatedAt: app.UpdatedAt,
	}
	if app.Score != nil {
		view := toScoreView(app.Score)
		detail.Score = &view
	}
	return detail
}

func toSummary(app *domain.Application) ports.ApplicationSummary {
	summary := ports.ApplicationSummary{
		ApplicationID: app.ApplicationID,
		ApplicantName: strings.TrimSpace(app.Applicant.FirstName + " " + app.Applicant.LastName),
		Email:         app.Applicant.Email,
		Status:        string(app.Status),
		LoanAmount:    app.Applicant.LoanAmount,
		CreatedAt:     app.CreatedAt,
	}
	if app.Score != nil {
		summary.Percentage = app.Score.Percentage
		summary.Tier = string(app.Score.Tier)
	}
	return summary
}
