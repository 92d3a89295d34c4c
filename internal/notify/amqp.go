package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPNotifier publishes events to a durable queue, for deployments that
// bridge desktop events into a fleet-management broker.
type AMQPNotifier struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

type event struct {
	Title string    `json:"title"`
	Body  string    `json:"body"`
	TS    time.Time `json:"ts"`
}

// NewAMQPNotifier dials the broker and declares the queue topology:
// main queue dead-letters to a DLQ, and a retry queue dead-letters back
// to the main queue.
func NewAMQPNotifier(url, queue string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	mainQ := queue
	retryQ := queue + ".retry"
	dlqQ := queue + ".dlq"

	if _, err := ch.QueueDeclare(dlqQ, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(retryQ, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": mainQ,
	}); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(mainQ, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dlqQ,
	}); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &AMQPNotifier{conn: conn, ch: ch, queue: queue}, nil
}

func (n *AMQPNotifier) Close() error {
	if n.ch != nil {
		_ = n.ch.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}

func (n *AMQPNotifier) Notify(ctx context.Context, title, body string) error {
	b, err := json.Marshal(event{Title: title, Body: body, TS: time.Now()})
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return n.ch.PublishWithContext(cctx,
		"",      // default exchange
		n.queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         b,
			Timestamp:    time.Now(),
		},
	)
}
