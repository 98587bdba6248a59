package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var (
	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("publisher closed")
	// ErrBufferFull is returned when the outbound buffer has no room; the event is dropped.
	ErrBufferFull = errors.New("event buffer full")
)

const (
	defaultBufferSize  = 256
	defaultDialTimeout = 3 * time.Second
	defaultRetryDelay  = 5 * time.Second
)

// AMQPOption configures an AMQPPublisher.
type AMQPOption func(*AMQPPublisher)

// WithBufferSize sets how many events may wait for the broker.
func WithBufferSize(n int) AMQPOption {
	return func(p *AMQPPublisher) {
		if n > 0 {
			p.bufferSize = n
		}
	}
}

// WithDialTimeout bounds the TCP connect and AMQP handshake.
func WithDialTimeout(d time.Duration) AMQPOption {
	return func(p *AMQPPublisher) {
		if d > 0 {
			p.dialTimeout = d
		}
	}
}

// WithRetryDelay sets how long the publisher waits after a failed dial before
// dialing again. Events arriving in between are dropped.
func WithRetryDelay(d time.Duration) AMQPOption {
	return func(p *AMQPPublisher) {
		if d >= 0 {
			p.retryDelay = d
		}
	}
}

// AMQPPublisher writes persistent JSON messages to a durable queue. Publish only
// enqueues; a single background goroutine owns the broker connection, dials it
// lazily and redials after failures. Callers never wait on the broker.
type AMQPPublisher struct {
	url    string
	queue  string
	logger *zap.Logger

	bufferSize  int
	dialTimeout time.Duration
	retryDelay  time.Duration

	events    chan Event
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// owned by run
	conn     *amqp.Connection
	ch       *amqp.Channel
	nextDial time.Time
}

// NewAMQPPublisher starts a publisher for queue on the broker at url.
func NewAMQPPublisher(url, queue string, logger *zap.Logger, opts ...AMQPOption) *AMQPPublisher {
	p := &AMQPPublisher{
		url:         url,
		queue:       queue,
		logger:      logger.Named("AMQPPublisher"),
		bufferSize:  defaultBufferSize,
		dialTimeout: defaultDialTimeout,
		retryDelay:  defaultRetryDelay,
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.events = make(chan Event, p.bufferSize)
	go p.run()
	return p
}

// Publish hands event to the background sender without blocking.
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-p.done:
		return ErrPublisherClosed
	default:
	}

	select {
	case p.events <- event:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close stops the sender and releases the broker connection. Events still
// buffered are dropped.
func (p *AMQPPublisher) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	<-p.stopped
	return nil
}

func (p *AMQPPublisher) run() {
	defer close(p.stopped)
	defer p.disconnect()

	for {
		select {
		case <-p.done:
			return
		case event := <-p.events:
			select {
			case <-p.done:
				return
			default:
			}
			p.send(event)
		}
	}
}

func (p *AMQPPublisher) send(event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("event dropped", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}

	ch, err := p.channel()
	if err != nil {
		p.logger.Warn("event dropped", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         string(event.Type),
		Body:         body,
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.dialTimeout)
	defer cancel()
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		p.disconnect()
		p.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.disconnect()

	if time.Now().Before(p.nextDial) {
		return nil, errors.New("rabbitmq unavailable, waiting to redial")
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Dial:      amqp.DefaultDial(p.dialTimeout),
		Heartbeat: 10 * time.Second,
	})
	if err != nil {
		p.nextDial = time.Now().Add(p.retryDelay)
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		p.nextDial = time.Now().Add(p.retryDelay)
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		p.nextDial = time.Now().Add(p.retryDelay)
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) disconnect() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
