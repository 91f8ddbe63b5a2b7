package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gartstein/shopper/internal/shopper/metrics"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	CompanyCreated EventType = "company.created"
	CompanyUpdated EventType = "company.updated"
	CompanyDeleted EventType = "company.deleted"
	ProductCreated EventType = "product.created"
	ProductUpdated EventType = "product.updated"
	ProductDeleted EventType = "product.deleted"
)

// Event announces a committed change of one aggregate.
type Event struct {
	Type       EventType       `json:"type"`
	Aggregate  string          `json:"aggregate"`
	ID         uint            `json:"id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an event for the aggregate with the given identity.
// payload may be nil, e.g. for deletions.
func NewEvent(eventType EventType, aggregate string, id uint, payload any) (Event, error) {
	event := Event{Type: eventType, Aggregate: aggregate, ID: id, OccurredAt: time.Now().UTC()}
	if payload != nil {
		raw, err := jsonMarshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("failed to serialize %s payload: %w", eventType, err)
		}
		event.Payload = raw
	}
	return event, nil
}

// Key partitions events so that all changes of one aggregate stay ordered.
func (e Event) Key() []byte {
	return []byte(fmt.Sprintf("%s/%d", e.Aggregate, e.ID))
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes events asynchronously from a bounded queue. Produce
// never blocks; when the queue is full the event is dropped and logged.
type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	metrics   *metrics.Metrics
	closeChan chan struct{}
	done      sync.WaitGroup
}

func NewProducer(brokers []string, topic string, logger *zap.Logger, m *metrics.Metrics) (*Producer, error) {
	// Create topic if it doesn't exist
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
		Topic:    topic,
	}
	return newProducer(writer, logger, m, 1000), nil
}

func newProducer(writer KafkaWriter, logger *zap.Logger, m *metrics.Metrics, buffer int) *Producer {
	p := &Producer{
		writer:    writer,
		events:    make(chan Event, buffer),
		logger:    logger.Named("kafka_producer"),
		metrics:   m,
		closeChan: make(chan struct{}),
	}
	p.done.Add(1)
	go p.eventLoop()
	return p
}

func (p *Producer) Produce(event Event) {
	select {
	case p.events <- event:
	default:
		p.metrics.IncEventPublished(string(event.Type), errQueueFull)
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.Uint("id", event.ID),
		)
	}
}

var errQueueFull = fmt.Errorf("queue full")

func (p *Producer) eventLoop() {
	defer p.done.Done()
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			return
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.Uint("id", event.ID),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   event.Key(),
		Value: value,
	})
	p.metrics.IncEventPublished(string(event.Type), err)
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.Uint("id", event.ID),
		)
	}
}

// Close stops the event loop and closes the writer. Events still queued
// are dropped.
func (p *Producer) Close() {
	close(p.closeChan)
	p.done.Wait()
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
