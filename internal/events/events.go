// Package events carries booking lifecycle events from the API to the worker
// over Kafka.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"

	"voyago/internal/domain/bookings"
)

var json = jsoniter.ConfigFastest

const (
	DefaultTopic = "bookings.events"

	TypeBookingCreated       = "booking.created"
	TypeBookingStatusChanged = "booking.status_changed"
)

type BookingEvent struct {
	Type           string    `json:"type"`
	BookingID      uuid.UUID `json:"booking_id"`
	Reference      string    `json:"reference"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	CustomerName   string    `json:"customer_name"`
	CustomerEmail  string    `json:"customer_email"`
	Destination    string    `json:"destination"`
	StartDate      string    `json:"start_date"`
	Travelers      int       `json:"travelers"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewBookingEvent describes b. previous is empty for a new booking.
func NewBookingEvent(b *bookings.Booking, previous string, at time.Time) BookingEvent {
	typ := TypeBookingStatusChanged
	if previous == "" {
		typ = TypeBookingCreated
	}
	return BookingEvent{
		Type:           typ,
		BookingID:      b.ID,
		Reference:      b.Reference,
		Status:         b.Status,
		PreviousStatus: previous,
		CustomerName:   b.CustomerName,
		CustomerEmail:  b.CustomerEmail,
		Destination:    b.DestinationName,
		StartDate:      b.StartDate.Format("2006-01-02"),
		Travelers:      b.Travelers,
		OccurredAt:     at.UTC(),
	}
}

func Decode(data []byte) (BookingEvent, error) {
	var e BookingEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("decode booking event: %w", err)
	}
	if e.BookingID == uuid.Nil || e.Type == "" {
		return e, fmt.Errorf("decode booking event: missing type or booking id")
	}
	return e, nil
}

type Publisher interface {
	Publish(ctx context.Context, e BookingEvent) error
	Close() error
}

// writeBatchTimeout bounds how long a synchronous write waits for a batch to
// fill; the writer's 1s default would stall every request that publishes.
const writeBatchTimeout = 10 * time.Millisecond

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           writeBatchTimeout,
		AllowAutoTopicCreation: true,
	}
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: newWriter(brokers, topic)}
}

// Publish keys the message by booking id so one booking's events stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, e BookingEvent) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode booking event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.BookingID.String()),
		Value: value,
		Time:  e.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish booking event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// NoopPublisher drops events; used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BookingEvent) error { return nil }
func (NoopPublisher) Close() error                                { return nil }

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, group, topic string) *Consumer {
	return &Consumer{reader: kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  group,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})}
}

func (c *Consumer) Fetch(ctx context.Context) (kafka.Message, error) {
	return c.reader.FetchMessage(ctx)
}

func (c *Consumer) Commit(ctx context.Context, m kafka.Message) error {
	return c.reader.CommitMessages(ctx, m)
}

func (c *Consumer) Close() error { return c.reader.Close() }

// DeadLetterWriter forwards raw messages that the worker could not handle.
type DeadLetterWriter struct {
	writer *kafka.Writer
}

func NewDeadLetterWriter(brokers []string, topic string) *DeadLetterWriter {
	return &DeadLetterWriter{writer: newWriter(brokers, topic)}
}

func (w *DeadLetterWriter) Publish(ctx context.Context, key, value []byte) error {
	return w.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value, Time: time.Now()})
}

func (w *DeadLetterWriter) Close() error { return w.writer.Close() }
