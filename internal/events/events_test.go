package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyago/internal/domain/bookings"
)

func sampleBooking() *bookings.Booking {
	return &bookings.Booking{
		ID:              uuid.New(),
		Reference:       "VYG-K3M9QX2A",
		CustomerName:    "Mara Silva",
		CustomerEmail:   "mara@example.com",
		DestinationName: "Lisbon",
		StartDate:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Travelers:       2,
		Status:          bookings.StatusConfirmed,
	}
}

func TestNewBookingEvent(t *testing.T) {
	at := time.Date(2025, 5, 2, 10, 0, 0, 0, time.FixedZone("WEST", 3600))

	created := NewBookingEvent(sampleBooking(), "", at)
	assert.Equal(t, TypeBookingCreated, created.Type)
	assert.Equal(t, "2025-06-01", created.StartDate)
	assert.Equal(t, time.UTC, created.OccurredAt.Location())

	changed := NewBookingEvent(sampleBooking(), bookings.StatusPending, at)
	assert.Equal(t, TypeBookingStatusChanged, changed.Type)
	assert.Equal(t, bookings.StatusPending, changed.PreviousStatus)
}

func TestDecode(t *testing.T) {
	e := NewBookingEvent(sampleBooking(), bookings.StatusPending, time.Now())
	data, err := json.Marshal(e)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, e.BookingID, got.BookingID)
	assert.Equal(t, e.Reference, got.Reference)

	_, err = Decode([]byte(`{"type":"booking.created"}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), BookingEvent{}))
	assert.NoError(t, p.Close())
}

func TestWritersFlushPromptly(t *testing.T) {
	brokers := []string{"localhost:9092"}

	pub := NewKafkaPublisher(brokers, DefaultTopic)
	dlq := NewDeadLetterWriter(brokers, DefaultTopic+".dlq")

	for _, w := range []*kafka.Writer{pub.writer, dlq.writer} {
		assert.Equal(t, writeBatchTimeout, w.BatchTimeout)
		assert.LessOrEqual(t, w.BatchTimeout, 10*time.Millisecond)
		assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
		assert.IsType(t, &kafka.Hash{}, w.Balancer)
	}
	assert.Equal(t, DefaultTopic, pub.writer.Topic)
	assert.Equal(t, DefaultTopic+".dlq", dlq.writer.Topic)

	require.NoError(t, pub.Close())
	require.NoError(t, dlq.Close())
}
