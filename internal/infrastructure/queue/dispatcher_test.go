package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/loanpro/lending-system/internal/core/domain"
)

type recordingProcessor struct {
	mu   sync.Mutex
	seen map[string][]domain.ApplicationStatus
	done chan struct{}
	want int
}

func (p *recordingProcessor) Process(ctx context.Context, n domain.StatusNotification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[n.ApplicationID] = append(p.seen[n.ApplicationID], n.NewStatus)
	total := 0
	for _, statuses := range p.seen {
		total += len(statuses)
	}
	if total == p.want {
		close(p.done)
	}
	return nil
}

func TestDispatcher_PreservesPerApplicationOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sequence := []domain.ApplicationStatus{
		domain.StatusUnderReview,
		domain.StatusApproved,
		domain.StatusRejected,
		domain.StatusPending,
	}
	apps := []string{"LA20260615AAAAAAAA", "LA20260615BBBBBBBB", "LA20260615CCCCCCCC"}

	processor := &recordingProcessor{
		seen: map[string][]domain.ApplicationStatus{},
		done: make(chan struct{}),
		want: len(sequence) * len(apps),
	}

	d := NewDispatcher(3, processor, zerolog.Nop())
	d.Start(ctx)

	for _, status := range sequence {
		for _, id := range apps {
			d.Enqueue(domain.StatusNotification{ApplicationID: id, NewStatus: status})
		}
	}

	select {
	case <-processor.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for notifications")
	}

	processor.mu.Lock()
	defer processor.mu.Unlock()
	for _, id := range apps {
		got := processor.seen[id]
		if len(got) != len(sequence) {
			t.Fatalf("%s: got %d notifications, want %d", id, len(got), len(sequence))
		}
		for i, status := range sequence {
			if got[i] != status {
				t.Fatalf("%s: notification %d is %s, want %s", id, i, got[i], status)
			}
		}
	}
}

func TestDispatcher_DefaultsWorkerCount(t *testing.T) {
	d := NewDispatcher(0, &recordingProcessor{seen: map[string][]domain.ApplicationStatus{}, done: make(chan struct{}), want: -1}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
}
