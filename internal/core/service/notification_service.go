package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/loanpro/lending-system/internal/core/domain"
	"github.com/loanpro/lending-system/internal/core/ports"
)

// NotificationService persists applicant-facing status notifications to the
// outbox. An external mailer drains the outbox; delivery itself is out of scope.
type NotificationService struct {
	outbox ports.NotificationOutbox
	log    zerolog.Logger
}

func NewNotificationService(outbox ports.NotificationOutbox, log zerolog.Logger) *NotificationService {
	return &NotificationService{outbox: outbox, log: log}
}

// Process stores one notification. Called by the dispatcher workers; failures
// are returned so the dispatcher can log them, they never affect the already
// committed transition.
func (s *NotificationService) Process(ctx context.Context, n domain.StatusNotification) error {
	if err := s.outbox.Enqueue(ctx, &n); err != nil {
		return fmt.Errorf("notification outbox: %w", err)
	}

	s.log.Debug().
		Str("application_id", n.ApplicationID).
		Str("new_status", string(n.NewStatus)).
		Msg("status notification queued")
	return nil
}
