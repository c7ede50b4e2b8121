/*
Package announce implements the announcement durability pipeline: a durable
RabbitMQ queue between the admin surface that publishes announcements and
the worker that persists and fans them out.

Delivery is at-least-once. The publisher assigns each announcement a UUID
before it enters the queue, and the consumer upserts on that id, so a
redelivery after a consumer crash collapses into the same row.
*/
package announce

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"communityhub/internal/app/store"
	"communityhub/internal/pkg/logx"
)

const (
	// QueueName is the durable queue announcements travel through.
	QueueName = "announcement_queue"

	// messageTTL is how long an unconsumed announcement survives in the queue.
	messageTTL = 3 * 24 * time.Hour

	// redialDelay is the pause before a reconnect attempt.
	redialDelay = 5 * time.Second
)

// Queue wraps the AMQP connection and channel used by both the publisher
// and the consumer worker.
type Queue struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel

	logger zerolog.Logger
}

// NewQueue returns an unconnected Queue for the given broker URL.
func NewQueue(url string) *Queue {
	return &Queue{
		url:    url,
		logger: logx.Logger().With().Str("component", "announce_queue").Logger(),
	}
}

// Connect dials the broker and declares the durable announcement queue.
func (q *Queue) Connect() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	conn, err := amqp.Dial(q.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		QueueName,
		true,  // durable: the queue survives a broker restart
		false, // autoDelete
		false, // exclusive
		false, // noWait
		amqp.Table{"x-message-ttl": messageTTL.Milliseconds()},
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare queue %s: %w", QueueName, err)
	}

	q.conn = conn
	q.ch = ch

	q.logger.Info().Str("queue", QueueName).Msg("Connected to RabbitMQ.")
	return nil
}

// Publish sends one announcement into the queue with persistent delivery.
func (q *Queue) Publish(ctx context.Context, a *store.Announcement) error {
	q.mu.Lock()
	ch := q.ch
	q.mu.Unlock()

	if ch == nil {
		return fmt.Errorf("announcement queue is not connected")
	}

	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode announcement: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", QueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    a.ID,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish announcement: %w", err)
	}

	q.logger.Info().Str("announcement_id", a.ID).Str("title", a.Title).Msg("Announcement queued.")
	return nil
}

// consume opens a delivery stream with prefetch 1, so one announcement is
// processed at a time and an unacked message is redelivered on crash.
func (q *Queue) consume() (<-chan amqp.Delivery, error) {
	q.mu.Lock()
	ch := q.ch
	q.mu.Unlock()

	if ch == nil {
		return nil, fmt.Errorf("announcement queue is not connected")
	}

	if err := ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set prefetch: %w", err)
	}

	deliveries, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start consumer: %w", err)
	}

	return deliveries, nil
}

// Close tears down the channel and connection.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ch != nil {
		q.ch.Close()
		q.ch = nil
	}
	if q.conn != nil {
		q.conn.Close()
		q.conn = nil
	}
}
