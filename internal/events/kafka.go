package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var (
	ErrPublisherClosed = errors.New("publisher closed")
	ErrBufferFull      = errors.New("event buffer full")
)

// messageWriter is the part of *kafka.Writer the publisher needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher queues envelopes in an inbox drained by a single goroutine.
// Messages are keyed by order number so one order's events stay ordered.
type KafkaPublisher struct {
	w       messageWriter
	inbox   chan kafka.Message
	done    chan struct{}
	log     zerolog.Logger
	mu      sync.RWMutex
	closed  bool
	timeout time.Duration
}

func NewKafkaPublisher(brokers []string, topic string, buf int, log zerolog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return newKafkaPublisher(w, buf, log)
}

func newKafkaPublisher(w messageWriter, buf int, log zerolog.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		done:    make(chan struct{}),
		log:     log.With().Str("component", "events").Logger(),
		timeout: 10 * time.Second,
	}
	go p.loop()
	return p
}

func (p *KafkaPublisher) loop() {
	defer close(p.done)
	for m := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.w.WriteMessages(ctx, m)
		cancel()
		if err != nil {
			p.log.Error().Err(err).Str("key", string(m.Key)).Msg("publish event")
		}
	}
}

// Publish enqueues env without waiting for the broker.
func (p *KafkaPublisher) Publish(_ context.Context, env Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(env.CorrelationID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
			{Key: "event_id", Value: []byte(env.EventID)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.inbox <- msg:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close flushes queued messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.inbox)
	p.mu.Unlock()
	<-p.done
	return p.w.Close()
}
