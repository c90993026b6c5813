package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPQueue publishes and consumes jobs through RabbitMQ. Each topic maps
// to a durable queue of the same name on the default exchange.
type AMQPQueue struct {
	conn   *amqp.Connection
	mu     sync.Mutex
	ch     *amqp.Channel
	logger *zap.Logger

	declared map[string]bool

	// Queues overrides the queue name used for a topic.
	Queues map[string]string
}

func (q *AMQPQueue) queueName(topic string) string {
	if name, ok := q.Queues[topic]; ok && name != "" {
		return name
	}
	return topic
}

func DialAMQP(url string, logger *zap.Logger) (*AMQPQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &AMQPQueue{conn: conn, ch: ch, logger: logger, declared: map[string]bool{}}, nil
}

func (q *AMQPQueue) declare(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}

// Publish sends payload as a persistent JSON message.
func (q *AMQPQueue) Publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	name := q.queueName(topic)
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.declared[name] {
		if err := q.declare(q.ch, name); err != nil {
			return err
		}
		q.declared[name] = true
	}
	return q.ch.Publish("", name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Subscribe starts consuming topic in the background. The handler receives
// the raw message body.
func (q *AMQPQueue) Subscribe(topic string, handler func(payload any) error) error {
	deliveries, err := q.consume(topic)
	if err != nil {
		return err
	}
	go q.drain(context.Background(), deliveries, handler)
	return nil
}

// Consume processes topic one delivery at a time until ctx is done or the
// connection closes.
func (q *AMQPQueue) Consume(ctx context.Context, topic string, handler func(payload any) error) error {
	deliveries, err := q.consume(topic)
	if err != nil {
		return err
	}
	q.drain(ctx, deliveries, handler)
	return ctx.Err()
}

func (q *AMQPQueue) consume(topic string) (<-chan amqp.Delivery, error) {
	name := q.queueName(topic)
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open consumer channel: %w", err)
	}
	if err := q.declare(ch, name); err != nil {
		return nil, err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("set prefetch: %w", err)
	}
	deliveries, err := ch.Consume(
		name,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("register consumer: %w", err)
	}
	return deliveries, nil
}

func (q *AMQPQueue) drain(ctx context.Context, deliveries <-chan amqp.Delivery, handler func(payload any) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				q.logger.Warn("delivery channel closed")
				return
			}
			settle(d, handler(d.Body), q.logger)
		}
	}
}

// settle acks successful deliveries. A retryable failure is requeued once;
// anything else is rejected without requeue.
func settle(d amqp.Delivery, err error, logger *zap.Logger) {
	var ackErr error
	switch {
	case err == nil:
		ackErr = d.Ack(false)
	case IsRetryable(err) && !d.Redelivered:
		logger.Warn("job failed, requeueing", zap.Error(err))
		ackErr = d.Nack(false, true)
	default:
		logger.Error("job failed", zap.Bool("redelivered", d.Redelivered), zap.Error(err))
		ackErr = d.Nack(false, false)
	}
	if ackErr != nil && !errors.Is(ackErr, amqp.ErrClosed) {
		logger.Error("failed to settle delivery", zap.Error(ackErr))
	}
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	return q.conn.Close()
}

var _ Queue = (*AMQPQueue)(nil)
