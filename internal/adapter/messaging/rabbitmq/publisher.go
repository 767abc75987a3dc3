package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements ports.EventPublisher on a durable topic exchange.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	reopen   func() (channel, error)
	broken   error // last reopen failure, cleared by a successful publish
	exchange string
	log      zerolog.Logger
}

// NewPublisher dials the broker and declares the exchange.
func NewPublisher(rawURL, exchange string, log zerolog.Logger) (*Publisher, error) {
	cleanURL, err := sanitizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	reopen := func() (channel, error) { return conn.Channel() }
	ch, err := reopen()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	p := newPublisher(ch, reopen, exchange, log)
	p.conn = conn
	if err := p.declare(); err != nil {
		p.Close()
		return nil, err
	}

	log.Info().Str("exchange", exchange).Msg("RabbitMQ publisher ready")
	return p, nil
}

func newPublisher(ch channel, reopen func() (channel, error), exchange string, log zerolog.Logger) *Publisher {
	return &Publisher{
		ch:       ch,
		reopen:   reopen,
		exchange: exchange,
		log:      log.With().Str("component", "rabbitmq_publisher").Logger(),
	}
}

func (p *Publisher) declare() error {
	if err := p.ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	return nil
}

// Publish sends body to the exchange. On a channel failure the channel is
// reopened once and the publish retried.
func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	if err == nil {
		p.broken = nil
		return nil
	}

	p.log.Warn().Err(err).Str("routing_key", routingKey).Msg("publish failed; reopening channel")
	if p.reopen == nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	ch, chErr := p.reopen()
	if chErr != nil {
		p.broken = chErr
		return fmt.Errorf("publish %s: %w", routingKey, errors.Join(err, chErr))
	}
	p.ch = ch
	p.broken = nil
	if err := p.declare(); err != nil {
		return err
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// Close closes the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

// Name implements ports.HealthChecker.
func (p *Publisher) Name() string { return "rabbitmq" }

// Ping fails once the connection is closed or the last channel reopen failed.
func (p *Publisher) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil && p.conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	if p.broken != nil {
		return fmt.Errorf("rabbitmq channel unavailable: %w", p.broken)
	}
	return nil
}

// NopPublisher stands in when the broker is unreachable at startup.
type NopPublisher struct {
	log zerolog.Logger
}

// NewNopPublisher creates a publisher that only logs.
func NewNopPublisher(log zerolog.Logger) *NopPublisher {
	return &NopPublisher{log: log.With().Str("component", "rabbitmq_publisher").Str("mode", "fallback").Logger()}
}

func (p *NopPublisher) Publish(_ context.Context, routingKey string, _ []byte) error {
	p.log.Debug().Str("routing_key", routingKey).Msg("publish skipped")
	return nil
}

func (p *NopPublisher) Close() error { return nil }

func (p *NopPublisher) Name() string { return "rabbitmq" }

// Ping always fails: events are being dropped.
func (p *NopPublisher) Ping(context.Context) error {
	return errors.New("rabbitmq unavailable at startup, events are not delivered")
}

// sanitizeURL trims quoting and stray prefixes that env files tend to leave
// around the URL.
func sanitizeURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	if idx := strings.Index(strings.ToLower(clean), "amqp"); idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("parse amqp url: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("amqp url scheme must be amqp:// or amqps://")
	}
	return clean, nil
}
