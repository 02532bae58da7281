package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/loanpro/lending-system/internal/api/metrics"
	"github.com/loanpro/lending-system/internal/core/domain"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// NotificationProcessor consumes one status notification.
type NotificationProcessor interface {
	Process(ctx context.Context, n domain.StatusNotification) error
}

// Dispatcher routes status notifications to a fixed set of workers using
// consistent hashing on the application ID, guaranteeing per-application
// delivery ordering.
type Dispatcher struct {
	workers   []chan domain.StatusNotification
	processor NotificationProcessor
	log       zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, processor NotificationProcessor, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan domain.StatusNotification, numWorkers),
		processor: processor,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.StatusNotification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a notification to the worker responsible for its application.
// Non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(n domain.StatusNotification) {
	idx := d.shardIndex(n.ApplicationID)
	d.workers[idx] <- n
	metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps an application ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(applicationID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(applicationID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.StatusNotification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			if err := d.processor.Process(ctx, n); err != nil {
				d.log.Error().Err(err).
					Str("application_id", n.ApplicationID).
					Int("worker_id", id).
					Msg("notification processing failed")
			}
		}
	}
}
