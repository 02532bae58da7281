package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/loanpro/lending-system/internal/core/domain"
	"github.com/loanpro/lending-system/internal/core/ports"
)

type stubApplicationRepo struct {
	apps map[string]*domain.Application

	createErrs []error // consumed per Create call before the default behaviour
	createN    int
	updateN    int
}

func newStubApplicationRepo() *stubApplicationRepo {
	return &stubApplicationRepo{apps: map[string]*domain.Application{}}
}

func (r *stubApplicationRepo) Create(ctx context.Context, app *domain.Application) error {
	r.createN++
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := r.apps[app.ApplicationID]; ok {
		return domain.ErrDuplicateApplication
	}
	clone := *app
	r.apps[app.ApplicationID] = &clone
	return nil
}

func (r *stubApplicationRepo) FindByID(ctx context.Context, applicationID string) (*domain.Application, error) {
	app, ok := r.apps[applicationID]
	if !ok {
		return nil, domain.ErrApplicationNotFound
	}
	clone := *app
	return &clone, nil
}

func (r *stubApplicationRepo) FindByIDAndEmail(ctx context.Context, applicationID, email string) (*domain.Application, error) {
	app, err := r.FindByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Applicant.Email != email {
		return nil, domain.ErrApplicationNotFound
	}
	return app, nil
}

func (r *stubApplicationRepo) UpdateStatus(ctx context.Context, applicationID string, from, to domain.ApplicationStatus, updatedAt time.Time, entry domain.AuditLogEntry) error {
	r.updateN++
	app, ok := r.apps[applicationID]
	if !ok {
		return domain.ErrApplicationNotFound
	}
	if app.Status != from {
		return domain.ErrStatusConflict
	}
	app.Status = to
	app.UpdatedAt = updatedAt
	app.AuditLog = append(app.AuditLog, entry)
	return nil
}

func (r *stubApplicationRepo) List(ctx context.Context, filter ports.ListApplicationsFilter) ([]*domain.Application, int64, error) {
	out := make([]*domain.Application, 0, len(r.apps))
	for _, app := range r.apps {
		if filter.Status != "" && string(app.Status) != filter.Status {
			continue
		}
		clone := *app
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (r *stubApplicationRepo) Delete(ctx context.Context, applicationID string) error {
	if _, ok := r.apps[applicationID]; !ok {
		return domain.ErrApplicationNotFound
	}
	delete(r.apps, applicationID)
	return nil
}

func (r *stubApplicationRepo) CountByStatus(ctx context.Context) (*ports.StatusCounts, error) {
	counts := &ports.StatusCounts{}
	for _, app := range r.apps {
		counts.Total++
		switch app.Status {
		case domain.StatusPending:
			counts.Pending++
		case domain.StatusUnderReview:
			counts.UnderReview++
		case domain.StatusApproved:
			counts.Approved++
		case domain.StatusRejected:
			counts.Rejected++
		}
	}
	return counts, nil
}

func (r *stubApplicationRepo) MonthlyCounts(ctx context.Context) ([]ports.MonthlyCount, error) {
	return []ports.MonthlyCount{{Month: "2026-06", Count: int64(len(r.apps))}}, nil
}

type stubLocker struct {
	acquired int
	released int
	failWith error
}

func (l *stubLocker) Acquire(ctx context.Context, applicationID string) (func(), error) {
	if l.failWith != nil {
		return nil, l.failWith
	}
	l.acquired++
	return func() { l.released++ }, nil
}

type stubDispatcher struct {
	sent []domain.StatusNotification
}

func (d *stubDispatcher) Enqueue(n domain.StatusNotification) {
	d.sent = append(d.sent, n)
}

var (
	reviewer = domain.ActorContext{Username: "carol", Role: domain.RoleReviewer}
	admin    = domain.ActorContext{Username: "root", Role: domain.RoleAdmin}
)

func newTestService(repo *stubApplicationRepo, locker *stubLocker, dispatcher *stubDispatcher) *ApplicationService {
	svc := NewApplicationService(repo, NewEligibilityScorer(), locker, dispatcher, zerolog.Nop())
	svc.now = func() time.Time {
		return time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func submitInput() ports.SubmitApplicationInput {
	return ports.SubmitApplicationInput{
		FirstName:    "Ana",
		LastName:     "Lopez",
		Email:        "Ana.Lopez@Example.com",
		Phone:        "+52 55 1234 5678",
		DateOfBirth:  time.Date(1990, time.March, 10, 0, 0, 0, 0, time.UTC),
		Address:      "Av. Reforma 100",
		City:         "CDMX",
		State:        "CMX",
		ZipCode:      "06600",
		Employment:   "employed",
		AnnualIncome: decimal.NewFromInt(600_000),
		LoanAmount:   decimal.NewFromInt(1_200_000),
		LoanPurpose:  "home improvement",
	}
}

func TestSubmit_CreatesPendingWithAuditTrail(t *testing.T) {
	repo := newStubApplicationRepo()
	locker := &stubLocker{}
	svc := newTestService(repo, locker, &stubDispatcher{})

	result, err := svc.Submit(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if !strings.HasPrefix(result.ApplicationID, "LA20260615") {
		t.Fatalf("unexpected application ID %q", result.ApplicationID)
	}
	if result.Status != string(domain.StatusPending) {
		t.Fatalf("expected pending, got %s", result.Status)
	}
	// 36 years (25) + 600k income (25) + employed (25) + ratio 2.0 (20).
	if result.Score.TotalScore != 95 {
		t.Fatalf("expected total 95, got %d", result.Score.TotalScore)
	}
	if result.Score.Tier != string(domain.TierHighlyEligible) {
		t.Fatalf("expected highly_eligible, got %s", result.Score.Tier)
	}

	app := repo.apps[result.ApplicationID]
	if app == nil {
		t.Fatalf("application not persisted")
	}
	if app.Applicant.Email != "ana.lopez@example.com" {
		t.Fatalf("email not normalised: %q", app.Applicant.Email)
	}
	if len(app.AuditLog) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(app.AuditLog))
	}
	if app.AuditLog[0].Action != domain.ActionSubmitted || app.AuditLog[0].Sequence != 1 {
		t.Fatalf("unexpected first audit entry: %+v", app.AuditLog[0])
	}
	if app.AuditLog[1].Action != domain.ActionEligibilityChecked || app.AuditLog[1].Sequence != 2 {
		t.Fatalf("unexpected second audit entry: %+v", app.AuditLog[1])
	}
	// Both entries share a timestamp; sequence alone fixes the order.
	if !app.AuditLog[0].Timestamp.Equal(app.AuditLog[1].Timestamp) {
		t.Fatalf("expected identical timestamps within one submission")
	}
	if locker.acquired != locker.released {
		t.Fatalf("lock leak: acquired %d released %d", locker.acquired, locker.released)
	}
}

func TestSubmit_UnknownEmploymentRejected(t *testing.T) {
	repo := newStubApplicationRepo()
	svc := newTestService(repo, &stubLocker{}, &stubDispatcher{})

	input := submitInput()
	input.Employment = "astronaut"

	_, err := svc.Submit(context.Background(), input)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if repo.createN != 0 {
		t.Fatalf("repository should not be touched on validation failure")
	}
}

func TestSubmit_RetriesOnDuplicateID(t *testing.T) {
	repo := newStubApplicationRepo()
	repo.createErrs = []error{domain.ErrDuplicateApplication}
	svc := newTestService(repo, &stubLocker{}, &stubDispatcher{})

	result, err := svc.Submit(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if repo.createN != 2 {
		t.Fatalf("expected 2 create attempts, got %d", repo.createN)
	}
	if len(repo.apps) != 1 || repo.apps[result.ApplicationID] == nil {
		t.Fatalf("expected exactly one persisted application")
	}
}

func TestSubmit_DistinctIDsWithinSameClockTick(t *testing.T) {
	repo := newStubApplicationRepo()
	svc := newTestService(repo, &stubLocker{}, &stubDispatcher{})

	first, err := svc.Submit(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := svc.Submit(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if first.ApplicationID == second.ApplicationID {
		t.Fatalf("expected distinct IDs, both %q", first.ApplicationID)
	}
}

func seedApplication(t *testing.T, repo *stubApplicationRepo, svc *ApplicationService, status domain.ApplicationStatus) string {
	t.Helper()
	result, err := svc.Submit(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("seed submit: %v", err)
	}
	repo.apps[result.ApplicationID].Status = status
	return result.ApplicationID
}

func TestTransition_AnyStateReachable(t *testing.T) {
	repo := newStubApplicationRepo()
	dispatcher := &stubDispatcher{}
	svc := newTestService(repo, &stubLocker{}, dispatcher)

	// approved back to pending is an allowed correction.
	id := seedApplication(t, repo, svc, domain.StatusApproved)

	result, err := svc.Transition(context.Background(), ports.TransitionInput{
		ApplicationID:   id,
		RequestedStatus: "pending",
		Comment:         "approved in error",
		Actor:           reviewer,
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if result.PreviousStatus != "approved" || result.NewStatus != "pending" || result.NoOp {
		t.Fatalf("unexpected result: %+v", result)
	}

	app := repo.apps[id]
	if app.Status != domain.StatusPending {
		t.Fatalf("status not applied: %s", app.Status)
	}
	if len(app.AuditLog) != 3 {
		t.Fatalf("expected 3 audit entries, got %d", len(app.AuditLog))
	}
	entry := app.AuditLog[2]
	if entry.Sequence != 3 || entry.Action != domain.ActionStatusUpdated {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
	if !strings.Contains(entry.Detail, "approved") || !strings.Contains(entry.Detail, "pending") {
		t.Fatalf("audit detail must record both statuses: %q", entry.Detail)
	}
	if !strings.Contains(entry.Detail, "approved in error") {
		t.Fatalf("audit detail must carry the comment: %q", entry.Detail)
	}
	if entry.Actor != "carol" {
		t.Fatalf("audit entry must record the actor, got %q", entry.Actor)
	}

	if len(dispatcher.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(dispatcher.sent))
	}
	n := dispatcher.sent[0]
	if n.OldStatus != domain.StatusApproved || n.NewStatus != domain.StatusPending {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestTransition_SameStateIsLoggedNoOp(t *testing.T) {
	repo := newStubApplicationRepo()
	dispatcher := &stubDispatcher{}
	svc := newTestService(repo, &stubLocker{}, dispatcher)

	id := seedApplication(t, repo, svc, domain.StatusUnderReview)
	before := repo.apps[id].UpdatedAt
	svc.now = func() time.Time { return before.Add(time.Minute) }

	result, err := svc.Transition(context.Background(), ports.TransitionInput{
		ApplicationID:   id,
		RequestedStatus: "under_review",
		Actor:           reviewer,
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if !result.NoOp {
		t.Fatalf("expected NoOp for same-state transition")
	}

	app := repo.apps[id]
	if app.Status != domain.StatusUnderReview {
		t.Fatalf("status must be unchanged, got %s", app.Status)
	}
	if !app.UpdatedAt.After(before) {
		t.Fatalf("updated_at must still advance on a no-op")
	}
	if len(app.AuditLog) != 3 {
		t.Fatalf("a no-op is still audited, got %d entries", len(app.AuditLog))
	}
	if len(dispatcher.sent) != 0 {
		t.Fatalf("no notification for a same-state transition")
	}
}

func TestTransition_InvalidStatusLeavesNoTrace(t *testing.T) {
	repo := newStubApplicationRepo()
	svc := newTestService(repo, &stubLocker{}, &stubDispatcher{})

	id := seedApplication(t, repo, svc, domain.StatusPending)

	_, err := svc.Transition(context.Background(), ports.TransitionInput{
		ApplicationID:   id,
		RequestedStatus: "archived",
		Actor:           reviewer,
	})
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	app := repo.apps[id]
	if app.Status != domain.StatusPending {
		t.Fatalf("status mutated on rejected transition")
	}
	if len(app.AuditLog) != 2 {
		t.Fatalf("rejected transition must not be audited, got %d entries", len(app.AuditLog))
	}
	if repo.updateN != 0 {
		t.Fatalf("repository update attempted for invalid status")
	}
}

func TestTransition_RequiresBackOfficeRole(t *testing.T) {
	repo := newStubApplicationRepo()
	svc := newTestService(repo, &stubLocker{}, &stubDispatcher{})

	id := seedApplication(t, repo, svc, domain.StatusPending)

	_, err := svc.Transition(context.Background(), ports.TransitionInput{
		ApplicationID:   id,
		RequestedStatus: "approved",
		Actor:           domain.ActorContext{Username: "eve", Role: "guest"},
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestTransition_NotFound(t *testing.T) {
	repo := newStubApplicationRepo()
	svc := newTestService(repo, &stubLocker{}, &stubDispatcher{})

	_, err := svc.Transition(context.Background(), ports.TransitionInput{
		ApplicationID:   "LA20260615FFFFFFFF",
		RequestedStatus: "approved",
		Actor:           reviewer,
	})
	if !errors.Is(err, domain.ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound, got %v", err)
	}
}

func TestTransition_LockFailure(t *testing.T) {
	repo := newStubApplicationRepo()
	svc := newTestService(repo, &stubLocker{}, &stubDispatcher{})
	id := seedApplication(t, repo, svc, domain.StatusPending)

	svc.locker = &stubLocker{failWith: domain.ErrLockNotObtained}

	_, err := svc.Transition(context.Background(), ports.TransitionInput{
		ApplicationID:   id,
		RequestedStatus: "approved",
		Actor:           reviewer,
	})
	if !errors.Is(err, domain.ErrLockNotObtained) {
		t.Fatalf("expected ErrLockNotObtained, got %v", err)
	}
	if repo.updateN != 0 {
		t.Fatalf("no update may happen without the lock")
	}
}

func TestLookup_RequiresMatchingEmail(t *testing.T) {
	repo := newStubApplicationRepo()
	svc := newTestService(repo, &stubLocker{}, &stubDispatcher{})
	id := seedApplication(t, repo, svc, domain.StatusPending)

	detail, err := svc.Lookup(context.Background(), id, "  Ana.Lopez@Example.com ")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if detail.ApplicationID != id {
		t.Fatalf("unexpected application: %s", detail.ApplicationID)
	}

	if _, err := svc.Lookup(context.Background(), id, "someone.else@example.com"); !errors.Is(err, domain.ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound for wrong email, got %v", err)
	}
}

func TestList_DefaultsAndRoleGuard(t *testing.T) {
	repo := newStubApplicationRepo()
	svc := newTestService(repo, &stubLocker{}, &stubDispatcher{})
	seedApplication(t, repo, svc, domain.StatusPending)

	result, err := svc.List(context.Background(), ports.ListApplicationsInput{Actor: reviewer})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Page != 1 || result.Limit != 20 {
		t.Fatalf("expected default page 1 limit 20, got %d/%d", result.Page, result.Limit)
	}
	if result.Total != 1 || result.TotalPages != 1 {
		t.Fatalf("unexpected totals: %+v", result)
	}

	if _, err := svc.List(context.Background(), ports.ListApplicationsInput{Actor: domain.ActorContext{Role: "guest"}}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if _, err := svc.List(context.Background(), ports.ListApplicationsInput{Actor: reviewer, Status: "bogus"}); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for bad filter, got %v", err)
	}
}

func TestList_CapsLimit(t *testing.T) {
	repo := newStubApplicationRepo()
	svc := newTestService(repo, &stubLocker{}, &stubDispatcher{})

	result, err := svc.List(context.Background(), ports.ListApplicationsInput{Actor: admin, Limit: 500})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Limit != 100 {
		t.Fatalf("expected limit capped at 100, got %d", result.Limit)
	}
}

func TestAuditTrail_OrderedBySequence(t *testing.T) {
	repo := newStubApplicationRepo()
	svc := newTestService(repo, &stubLocker{}, &stubDispatcher{})
	id := seedApplication(t, repo, svc, domain.StatusPending)

	for _, status := range []string{"under_review", "approved"} {
		if _, err := svc.Transition(context.Background(), ports.TransitionInput{
			ApplicationID:   id,
			RequestedStatus: status,
			Actor:           reviewer,
		}); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	entries, err := svc.AuditTrail(context.Background(), id, reviewer)
	if err != nil {
		t.Fatalf("audit trail: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.Sequence != i+1 {
			t.Fatalf("entry %d has sequence %d", i, e.Sequence)
		}
	}

	if _, err := svc.AuditTrail(context.Background(), id, domain.ActorContext{Role: "guest"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDelete_AdminOnlyAndCascades(t *testing.T) {
	repo := newStubApplicationRepo()
	svc := newTestService(repo, &stubLocker{}, &stubDispatcher{})
	id := seedApplication(t, repo, svc, domain.StatusPending)

	if err := svc.Delete(context.Background(), id, reviewer); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("reviewer must not delete, got %v", err)
	}

	if err := svc.Delete(context.Background(), id, admin); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), id); !errors.Is(err, domain.ErrApplicationNotFound) {
		t.Fatalf("application still retrievable after delete: %v", err)
	}
}

func TestStats_AdminOnly(t *testing.T) {
	repo := newStubApplicationRepo()
	svc := newTestService(repo, &stubLocker{}, &stubDispatcher{})
	seedApplication(t, repo, svc, domain.StatusApproved)

	if _, err := svc.Stats(context.Background(), reviewer); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("reviewer must not read stats, got %v", err)
	}

	stats, err := svc.Stats(context.Background(), admin)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Counts.Total != 1 || stats.Counts.Approved != 1 {
		t.Fatalf("unexpected counts: %+v", stats.Counts)
	}
	if len(stats.Monthly) != 1 || stats.Monthly[0].Month != "2026-06" {
		t.Fatalf("unexpected monthly counts: %+v", stats.Monthly)
	}
}
