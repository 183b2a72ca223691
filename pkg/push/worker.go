// Package push drains the outbound delivery buffer into Firebase Cloud
// Messaging. It is a transport detail: the pipeline only ever appends to the
// buffer and never waits on delivery.
package push

import (
	"context"
	"fmt"
	"log"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/wavelane/wavelane/backend/internal/repositories"
)

const drainBatchSize = 100

// Worker periodically drains pending push records and sends them to each
// user's device topic.
type Worker struct {
	queue     repositories.PushQueueRepository
	messaging *messaging.Client
	interval  time.Duration
}

// NewWorker creates a push worker draining the queue every interval.
func NewWorker(queue repositories.PushQueueRepository, client *messaging.Client, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Worker{queue: queue, messaging: client, interval: interval}
}

// Run drains the queue until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				log.Printf("push worker: drain failed: %v", err)
			}
		}
	}
}

func (w *Worker) drain(ctx context.Context) error {
	records, err := w.queue.NextBatch(ctx, drainBatchSize)
	if err != nil {
		return fmt.Errorf("fetch pending pushes: %w", err)
	}

	for _, rec := range records {
		if !rec.Mobile {
			// Browser-only pushes are delivered by the web push service;
			// the record stays addressed to it.
			if err := w.queue.MarkSent(ctx, rec.ID); err != nil {
				log.Printf("push worker: mark sent failed for %s: %v", rec.ID.Hex(), err)
			}
			continue
		}

		msg := &messaging.Message{
			Topic: fmt.Sprintf("user_%d", rec.UserID),
			Notification: &messaging.Notification{
				Title: rec.Title,
				Body:  rec.Message,
			},
		}
		if _, err := w.messaging.Send(ctx, msg); err != nil {
			log.Printf("push worker: send failed for user %d: %v", rec.UserID, err)
			if err := w.queue.MarkFailed(ctx, rec.ID); err != nil {
				log.Printf("push worker: mark failed failed for %s: %v", rec.ID.Hex(), err)
			}
			continue
		}
		if err := w.queue.MarkSent(ctx, rec.ID); err != nil {
			log.Printf("push worker: mark sent failed for %s: %v", rec.ID.Hex(), err)
		}
	}
	return nil
}
