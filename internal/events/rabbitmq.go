package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	maxConnectAttempts = 10
	publishTimeout     = 5 * time.Second
)

// RabbitPublisher publishes events to a durable topic exchange.
type RabbitPublisher struct {
	url      string
	exchange string
	log      logrus.FieldLogger

	mu   sync.RWMutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewRabbitPublisher connects to url, retrying with backoff, and declares exchange.
func NewRabbitPublisher(ctx context.Context, url, exchange string, log logrus.FieldLogger) (*RabbitPublisher, error) {
	p := &RabbitPublisher{url: url, exchange: exchange, log: log}

	retryDelay := time.Second
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		err := p.connect()
		if err == nil {
			log.WithFields(logrus.Fields{"exchange": exchange, "attempt": attempt}).Info("connected to rabbitmq")
			return p, nil
		}

		log.WithError(err).WithFields(logrus.Fields{
			"attempt":      attempt,
			"max_attempts": maxConnectAttempts,
			"retry_in":     retryDelay.String(),
		}).Warn("rabbitmq connection attempt failed")

		if attempt == maxConnectAttempts {
			return nil, fmt.Errorf("connect rabbitmq after %d attempts: %w", maxConnectAttempts, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
			retryDelay = time.Duration(float64(retryDelay) * 1.5)
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}
		}
	}

	return nil, errors.New("rabbitmq retry loop ended without a connection")
}

func (p *RabbitPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}

	p.mu.Lock()
	p.conn = conn
	p.ch = ch
	p.mu.Unlock()

	return nil
}

// Publish marshals data into an Event and publishes it under routingKey.
func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, data any) error {
	p.mu.RLock()
	ch := p.ch
	p.mu.RUnlock()

	if ch == nil || ch.IsClosed() {
		return errors.New("rabbitmq channel not available")
	}

	body, err := json.Marshal(Event{Type: routingKey, OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return ch.PublishWithContext(
		publishCtx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

// Close closes the channel and the connection.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

var _ Publisher = (*RabbitPublisher)(nil)
