package domain

import "time"

// StatusNotification is emitted after a successful status transition and
// drained by the notification outbox for applicant-facing delivery.
type StatusNotification struct {
	ApplicationID string
	Email         string
	OldStatus     ApplicationStatus
	NewStatus     ApplicationStatus
	Comment       string
	OccurredAt    time.Time
}
