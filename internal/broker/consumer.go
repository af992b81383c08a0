package broker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/taskboard/taskboard/pkg/logger"
)

// ConsumeReminders drives the reminder consumer until ctx is cancelled or
// the delivery channel closes. Prefetch is one unacked message; every
// delivery is manually acked or nacked without requeue (nack dead-letters
// into the DLQ, so a poison message is seen exactly once).
func (b *Broker) ConsumeReminders(ctx context.Context) error {
	b.mu.Lock()
	if err := b.ch.Qos(1, 0, false); err != nil {
		b.mu.Unlock()
		return fmt.Errorf("failed to set prefetch: %w", err)
	}
	deliveries, err := b.ch.Consume(QueueDue, "", false, false, false, false, nil)
	b.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to start consumer on %s: %w", QueueDue, err)
	}

	logger.Info(ctx, "Reminder consumer started", "queue", QueueDue)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				// Channel closed; unacked deliveries are redelivered
				// after reconnection.
				return nil
			}
			b.handleReminder(ctx, d)
		}
	}
}

// handleReminder processes one delivery. The only success side-effect is the
// structured reminder log line.
func (b *Broker) handleReminder(ctx context.Context, d amqp.Delivery) {
	var msg TaskDueV1
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		logger.Error(ctx, "Reminder message failed to deserialize",
			"error", err, "message_id", d.MessageId)
		if nackErr := b.nackDelivery(d); nackErr != nil {
			logger.Error(ctx, "Failed to nack reminder message", "error", nackErr)
		}
		return
	}

	logger.Info(ctx, fmt.Sprintf("Hi your Task is due %s", msg.Title),
		"task_id", msg.TaskID, "message_id", d.MessageId)

	if err := b.ackDelivery(d); err != nil {
		logger.Error(ctx, "Failed to ack reminder message",
			"error", err, "message_id", d.MessageId)
	}
}

// ackDelivery and nackDelivery write acknowledgement frames on the shared
// channel, so they take the same mutex as every publish.

func (b *Broker) ackDelivery(d amqp.Delivery) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return d.Ack(false)
}

func (b *Broker) nackDelivery(d amqp.Delivery) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return d.Nack(false, false)
}
