package announce

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"communityhub/internal/app/store"
	"communityhub/internal/pkg/logx"
)

// AnnouncementStore is the slice of the persistence layer the worker needs.
type AnnouncementStore interface {
	UpsertAnnouncement(ctx context.Context, a *store.Announcement) error
}

// Notifier fans a stored announcement out to connected clients.
type Notifier interface {
	Announce(a *store.Announcement)
}

// Worker consumes the announcement queue: each delivery is upserted into
// the store (idempotent on the publisher-assigned id) and then pushed to
// every connected session. Failed deliveries are requeued.
type Worker struct {
	queue    *Queue
	store    AnnouncementStore
	notifier Notifier
	logger   zerolog.Logger
}

// NewWorker constructs a Worker over an already-connected queue.
func NewWorker(queue *Queue, st AnnouncementStore, notifier Notifier) *Worker {
	return &Worker{
		queue:    queue,
		store:    st,
		notifier: notifier,
		logger:   logx.Logger().With().Str("component", "announce_worker").Logger(),
	}
}

// Run consumes deliveries until the context is cancelled. A dropped broker
// connection is redialed after a short delay.
func (w *Worker) Run(ctx context.Context) {
	for {
		deliveries, err := w.queue.consume()
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to open consumer, retrying.")

			select {
			case <-ctx.Done():
				return
			case <-time.After(redialDelay):
			}

			if err := w.queue.Connect(); err != nil {
				w.logger.Error().Err(err).Msg("Reconnect to RabbitMQ failed.")
			}
			continue
		}

		w.logger.Info().Str("queue", QueueName).Msg("Consuming announcement queue.")

		open := true
		for open {
			select {
			case <-ctx.Done():
				return

			case delivery, ok := <-deliveries:
				if !ok {
					w.logger.Warn().Msg("Delivery channel closed, reconnecting.")
					open = false
					continue
				}

				if err := w.handleDelivery(ctx, delivery.Body); err != nil {
					w.logger.Error().Err(err).Msg("Announcement processing failed, requeueing.")
					if nackErr := delivery.Nack(false, true); nackErr != nil {
						w.logger.Error().Err(nackErr).Str("message_id", delivery.MessageId).Msg("Failed to nack delivery.")
					}
					continue
				}

				if err := delivery.Ack(false); err != nil {
					// The broker will redeliver; the upsert keeps that harmless.
					w.logger.Error().Err(err).Str("message_id", delivery.MessageId).Msg("Failed to ack delivery.")
				}
			}
		}
	}
}

// handleDelivery persists one announcement and notifies connected clients.
// The upsert keyed on the announcement id makes redelivered copies harmless.
func (w *Worker) handleDelivery(ctx context.Context, body []byte) error {
	var a store.Announcement
	if err := json.Unmarshal(body, &a); err != nil {
		// A malformed message would be redelivered forever; log and drop it.
		w.logger.Error().Err(err).Bytes("body", body).Msg("Dropping undecodable announcement")
		return nil
	}

	if a.ID == "" {
		w.logger.Error().Msg("Dropping announcement without id")
		return nil
	}

	if err := w.store.UpsertAnnouncement(ctx, &a); err != nil {
		return fmt.Errorf("failed to store announcement %s: %w", a.ID, err)
	}

	w.notifier.Announce(&a)

	w.logger.Info().Str("announcement_id", a.ID).Str("title", a.Title).Msg("Announcement stored and broadcast.")
	return nil
}
