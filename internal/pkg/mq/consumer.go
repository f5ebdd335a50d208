package mq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/metrics"
	"github.com/rabbitmq/amqp091-go"
)

// MessageHandler processes one delivery. A returned error requeues the
// message once.
type MessageHandler func(ctx context.Context, routingKey string, body []byte) error

type Consumer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   amqp091.Queue
	handler MessageHandler
}

// NewConsumer declares a durable queue bound to routingKey on exchange.
func NewConsumer(url, exchange, queueName, routingKey string) (*Consumer, error) {
	conn, err := NewConnection(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := DeclareExchange(ch, exchange); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	if err := ch.Qos(10, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	slog.Info("consumer initialized", "routing_key", routingKey, "queue", queueName, "exchange", exchange)

	return &Consumer{
		conn:    conn,
		channel: ch,
		queue:   q,
	}, nil
}

func (c *Consumer) SetHandler(h MessageHandler) {
	c.handler = h
}

func (c *Consumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Run consumes until ctx is cancelled or the channel closes. Every delivery is
// acked on success. On error or panic it is requeued once, then dropped.
func (c *Consumer) Run(ctx context.Context) error {
	if c.handler == nil {
		return fmt.Errorf("consumer handler not set")
	}

	deliveries, err := c.channel.ConsumeWithContext(ctx, c.queue.Name, "leave-worker", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	slog.Info("consumer started", "queue", c.queue.Name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg amqp091.Delivery) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("handler panic recovered", "routing_key", msg.RoutingKey, "panic", r)
			c.reject(msg)
		}
	}()

	if err := c.handler(ctx, msg.RoutingKey, msg.Body); err != nil {
		slog.Error("handler error", "routing_key", msg.RoutingKey, "queue", c.queue.Name, "error", err)
		c.reject(msg)
		return
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("failed to ack message", "routing_key", msg.RoutingKey, "error", err)
		return
	}
	metrics.RecordMQConsumeLatency(msg.RoutingKey, c.queue.Name, time.Since(start))
}

// reject requeues a first failure once. A redelivered message that fails
// again is dropped so a poison message cannot spin the worker.
func (c *Consumer) reject(msg amqp091.Delivery) {
	if err := msg.Nack(false, !msg.Redelivered); err != nil {
		slog.Error("failed to nack message", "routing_key", msg.RoutingKey, "error", err)
	}
}
