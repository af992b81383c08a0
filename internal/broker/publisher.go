package broker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// PublishTaskDue publishes a persistent TaskDueV1 message. MessageId carries
// the task id so an extended consumer could dedup idempotently.
func (b *Broker) PublishTaskDue(ctx context.Context, msg TaskDueV1) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal task due message: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	err = b.ch.PublishWithContext(ctx, ExchangeTasks, RoutingKeyDue, false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.TaskID,
			Timestamp:    msg.TimestampUTC,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish task due message: %w", err)
	}

	return nil
}
