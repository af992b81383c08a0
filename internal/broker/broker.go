package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/taskboard/taskboard/pkg/logger"
)

const (
	ExchangeTasks   = "tasks.events"
	QueueDue        = "tasks.reminders.due"
	QueueDLQ        = "tasks.reminders.dlq"
	RoutingKeyDue   = "task.due"
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// Broker owns the AMQP connection and channel for a process. Channels are
// not safe for concurrent use; mu serializes every channel operation.
type Broker struct {
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Connect dials the broker with exponential backoff: 2s initial, doubling,
// capped at five attempts. Callers treat an error as fatal at startup.
func Connect(ctx context.Context, host, username, password string) (*Broker, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:5672/", username, password, host)

	var conn *amqp.Connection
	var err error
	delay := connectBackoff
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		logger.Warn(ctx, "Broker connection failed",
			"attempt", attempt, "max_attempts", connectAttempts, "error", err)
		if attempt == connectAttempts {
			return nil, fmt.Errorf("failed to connect to broker after %d attempts: %w", connectAttempts, err)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		delay *= 2
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	b := &Broker{conn: conn, ch: ch}
	if err := b.declareTopology(); err != nil {
		b.Close()
		return nil, err
	}

	logger.Info(ctx, "Broker connection established", "host", host)
	return b, nil
}

// declareTopology declares the exchange, the due queue and the DLQ. All
// declarations are idempotent; a restart re-declares the same durable
// topology. Failed deliveries dead-letter through the default exchange
// straight into the DLQ.
func (b *Broker) declareTopology() error {
	if err := b.ch.ExchangeDeclare(ExchangeTasks, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", ExchangeTasks, err)
	}

	if _, err := b.ch.QueueDeclare(QueueDLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", QueueDLQ, err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": QueueDLQ,
	}
	if _, err := b.ch.QueueDeclare(QueueDue, true, false, false, false, args); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", QueueDue, err)
	}

	if err := b.ch.QueueBind(QueueDue, RoutingKeyDue, ExchangeTasks, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", QueueDue, err)
	}

	return nil
}

// NotifyClose relays connection-level close events so the worker can exit
// and be restarted by its supervisor.
func (b *Broker) NotifyClose() chan *amqp.Error {
	return b.conn.NotifyClose(make(chan *amqp.Error, 1))
}

func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ch != nil {
		b.ch.Close()
	}
	if b.conn != nil {
		b.conn.Close()
	}
}
