package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ratehub/internal/events"
)

// ConsumerConfig configures the rating.events consumer.
type ConsumerConfig struct {
	URL         string
	Queue       string
	ConsumerTag string
	Prefetch    int
	// RatePerSecond caps how many deliveries per second enter the worker
	// pool. Zero disables the throttle.
	RatePerSecond float64
}

// Consumer reads the rating.events stream and feeds each delivery to the
// dispatcher through the worker pool. Delivery is at-least-once: a
// redeliverable dispatch failure is nacked back onto the queue, everything
// else is acked.
type Consumer struct {
	cfg        ConsumerConfig
	dispatcher *events.Dispatcher
	pool       *WorkerPool
	limiter    *rate.Limiter
	log        *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewConsumer(cfg ConsumerConfig, dispatcher *events.Dispatcher, pool *WorkerPool, log *zap.Logger) *Consumer {
	if cfg.Queue == "" {
		cfg.Queue = "rating.events"
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 32
	}
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := int(cfg.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return &Consumer{cfg: cfg, dispatcher: dispatcher, pool: pool, limiter: limiter, log: log}
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff when the broker connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)

	for {
		err := backoff.Retry(func() error {
			return c.connect(ctx)
		}, policy)
		if err != nil {
			return fmt.Errorf("broker connect: %w", err)
		}

		if err := c.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
			c.closeConn()
			continue
		}
		return nil
	}
}

func (c *Consumer) connect(_ context.Context) error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("AMQP connect error: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("AMQP channel error: %w", err)
	}
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("AMQP qos error: %w", err)
	}
	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("AMQP queue declare error: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = ch
	c.mu.Unlock()

	c.log.Info("connected to broker", zap.String("queue", c.cfg.Queue))
	return nil
}

func (c *Consumer) consume(ctx context.Context) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()

	deliveries, err := ch.Consume(
		c.cfg.Queue,
		c.cfg.ConsumerTag,
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("AMQP consume error: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			if c.limiter != nil {
				if err := c.limiter.Wait(ctx); err != nil {
					return nil
				}
			}
			c.handleDelivery(d)
		}
	}
}

// handleDelivery decodes the envelope and hands it to a worker. Undecodable
// envelopes are dropped (acked without requeue); redelivering them cannot
// help.
func (c *Consumer) handleDelivery(d amqp.Delivery) {
	ev, err := events.DecodeEnvelope(d.Body)
	if err != nil {
		c.log.Error("dropping undecodable event", zap.Error(err))
		if err := d.Ack(false); err != nil {
			c.log.Warn("ack failed", zap.Error(err))
		}
		return
	}

	c.pool.Submit(func(ctx context.Context) error {
		if err := c.dispatcher.Dispatch(ctx, ev); err != nil {
			// At least one listener needs another attempt.
			if nackErr := d.Nack(false, true); nackErr != nil {
				c.log.Warn("nack failed", zap.Error(nackErr))
			}
			return fmt.Errorf("event %s rating=%d requeued: %w", ev.Kind, ev.RatingID, err)
		}
		if err := d.Ack(false); err != nil {
			c.log.Warn("ack failed", zap.Error(err))
		}
		return nil
	})
}

func (c *Consumer) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Close shuts the broker connection down.
func (c *Consumer) Close() {
	c.closeConn()
}
