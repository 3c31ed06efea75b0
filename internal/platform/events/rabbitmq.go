package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitPublisher publishes events to a durable topic exchange, using the
// event type as routing key.
type RabbitPublisher struct {
	url      string
	exchange string
	log      *slog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewRabbitPublisher dials the broker, retrying a few times, and declares the exchange.
func NewRabbitPublisher(url, exchange string, log *slog.Logger) (*RabbitPublisher, error) {
	p := &RabbitPublisher{url: url, exchange: exchange, log: log}

	const maxRetries = 5
	var err error
	for i := 0; i < maxRetries; i++ {
		if err = p.connect(); err == nil {
			return p, nil
		}
		if i < maxRetries-1 {
			wait := time.Duration(i+1) * 2 * time.Second
			log.Warn("rabbitmq connect failed, retrying",
				slog.String("error", err.Error()),
				slog.Duration("wait", wait))
			time.Sleep(wait)
		}
	}
	return nil, fmt.Errorf("connect to rabbitmq after %d attempts: %w", maxRetries, err)
}

func (p *RabbitPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	p.conn = conn
	p.channel = ch
	return nil
}

// open reports whether both the connection and the channel are usable.
// A channel can be closed by the broker while its connection stays up.
func (p *RabbitPublisher) open() bool {
	return p.conn != nil && !p.conn.IsClosed() && p.channel != nil && !p.channel.IsClosed()
}

// discard releases whatever is left of the previous connection.
func (p *RabbitPublisher) discard() {
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *RabbitPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	body, err := json.Marshal(newEvent(eventType, payload))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open() {
		p.discard()
		if err := p.connect(); err != nil {
			return fmt.Errorf("reconnect: %w", err)
		}
		p.log.Info("rabbitmq publisher reconnected", slog.String("exchange", p.exchange))
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, p.exchange, eventType, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	p.log.Debug("event published", slog.String("event_type", eventType), slog.Int("size", len(body)))
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}
