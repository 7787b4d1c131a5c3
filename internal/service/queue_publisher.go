package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/tresh-api/internal/config"
	"github.com/iliyamo/tresh-api/internal/logging"
	"github.com/iliyamo/tresh-api/internal/queue"
)

// EventPublisher delivers audit events. Publishing is best effort: callers
// log failures and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AuthEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.AuthEvent) error { return nil }

var errBrokerBackoff = errors.New("rabbitmq: broker unavailable, backing off")

// AMQPPublisher publishes events as persistent JSON messages to a durable
// queue on the default exchange. The connection is opened lazily and
// reused; after a failed dial no new attempt is made until the backoff
// window has passed, so a missing broker costs requests nothing. Only one
// request dials at a time and the others fail fast with errBrokerBackoff
// meanwhile. p.mu guards the fields only and is never held across network
// calls.
type AMQPPublisher struct {
	cfg     config.QueueConfig
	log     logging.Logger
	backoff time.Duration

	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	nextDial  time.Time
	dialing   bool
	dialDelay time.Duration
}

func NewAMQPPublisher(cfg config.QueueConfig, log logging.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		cfg:       cfg,
		log:       log,
		backoff:   30 * time.Second,
		dialDelay: 2 * time.Second,
	}
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.AuthEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx,
		"",          // default exchange
		p.cfg.Queue, // routing key = queue name
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    ev.OccurredAt,
			Type:         ev.Type,
			Body:         body,
		})
	if err != nil {
		p.mu.Lock()
		if p.ch == ch {
			p.reset()
		}
		p.mu.Unlock()
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

// channel returns an open channel, dialing when needed.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	if p.ch != nil && !p.ch.IsClosed() {
		ch := p.ch
		p.mu.Unlock()
		return ch, nil
	}
	p.reset()
	if p.dialing || time.Now().Before(p.nextDial) {
		p.mu.Unlock()
		return nil, errBrokerBackoff
	}
	p.dialing = true
	p.mu.Unlock()

	conn, ch, err := p.dial()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialing = false
	if err != nil {
		p.nextDial = time.Now().Add(p.backoff)
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) dial() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(p.cfg.URL, amqp.Config{Dial: amqp.DefaultDial(p.dialDelay)})
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(p.cfg.Queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq: queue declare: %w", err)
	}
	return conn, ch, nil
}

// reset drops the current connection. Caller holds p.mu.
func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// publish sends ev and only logs a failure.
func publish(ctx context.Context, pub EventPublisher, log logging.Logger, ev queue.AuthEvent) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn(ctx, "audit event not published", "type", ev.Type, "err", err)
	}
}
