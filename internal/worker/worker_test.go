package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/9ssi7/exponent"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voyago/internal/domain/bookings"
	"voyago/internal/events"
	"voyago/internal/mailer"
)

type nopPush struct{}

func (nopPush) Publish(context.Context, []*exponent.Message) ([]*exponent.MessageResponse, error) {
	return nil, nil
}

func (nopPush) PublishSingle(context.Context, *exponent.Message) ([]*exponent.MessageResponse, error) {
	return nil, nil
}

type staticTokens []string

func (s staticTokens) AllTokens(context.Context) ([]string, error)   { return s, nil }
func (s staticTokens) RemoveTokens(context.Context, []string) error { return nil }

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(templateFile, username, email string, data any) error {
	return m.Called(templateFile, username, email).Error(0)
}

func confirmedEvent() events.BookingEvent {
	return events.BookingEvent{
		Type:           events.TypeBookingStatusChanged,
		BookingID:      uuid.New(),
		Reference:      "VYG-AB12CD34",
		Status:         bookings.StatusConfirmed,
		PreviousStatus: bookings.StatusPending,
		CustomerName:   "Mara",
		CustomerEmail:  "mara@example.com",
	}
}

func TestHandler_ConfirmedSendsMail(t *testing.T) {
	mail := new(mockMailer)
	mail.On("Send", mailer.BookingConfirmedTemplate, "Mara", "mara@example.com").Return(nil).Once()

	h := NewHandler(zap.NewNop().Sugar(), nopPush{}, staticTokens{"tok"}, mail)
	require.NoError(t, h.Handle(context.Background(), confirmedEvent()))
	mail.AssertExpectations(t)
}

func TestHandler_CreatedSkipsMail(t *testing.T) {
	mail := new(mockMailer)
	h := NewHandler(zap.NewNop().Sugar(), nopPush{}, staticTokens{}, mail)

	e := confirmedEvent()
	e.Type = events.TypeBookingCreated
	e.Status = bookings.StatusPending

	require.NoError(t, h.Handle(context.Background(), e))
	mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_MailFailure(t *testing.T) {
	mail := new(mockMailer)
	mail.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	h := NewHandler(zap.NewNop().Sugar(), nopPush{}, staticTokens{}, mail)
	assert.Error(t, h.Handle(context.Background(), confirmedEvent()))
}

// chanSource serves queued messages, then blocks until ctx ends.
type chanSource struct {
	msgs      chan kafka.Message
	mu        sync.Mutex
	committed []int64
}

func (s *chanSource) Fetch(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-s.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (s *chanSource) Commit(_ context.Context, m kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = append(s.committed, m.Offset)
	return nil
}

func (s *chanSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.committed)
}

type recordingDLQ struct {
	mu    sync.Mutex
	count int
}

func (d *recordingDLQ) Publish(context.Context, []byte, []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
	return nil
}

func (d *recordingDLQ) n() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

func TestDispatcher_Run(t *testing.T) {
	mail := new(mockMailer)
	mail.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	h := NewHandler(zap.NewNop().Sugar(), nopPush{}, staticTokens{}, mail)

	good, err := jsonEvent(confirmedEvent())
	require.NoError(t, err)

	src := &chanSource{msgs: make(chan kafka.Message, 3)}
	src.msgs <- kafka.Message{Offset: 1, Value: good}
	src.msgs <- kafka.Message{Offset: 2, Value: []byte("garbage")}
	src.msgs <- kafka.Message{Offset: 3, Value: good}

	dlq := &recordingDLQ{}
	d := NewDispatcher(zap.NewNop().Sugar(), h, src, dlq, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return src.count() == 3 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 1, dlq.n())
}

// brokenSource fails every fetch.
type brokenSource struct {
	mu      sync.Mutex
	fetches int
}

func (s *brokenSource) Fetch(context.Context) (kafka.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	return kafka.Message{}, errors.New("dial tcp: connection refused")
}

func (s *brokenSource) Commit(context.Context, kafka.Message) error { return nil }

func (s *brokenSource) n() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func TestDispatcher_FetchErrorsBackOff(t *testing.T) {
	h := NewHandler(zap.NewNop().Sugar(), nopPush{}, staticTokens{}, new(mockMailer))
	src := &brokenSource{}
	d := NewDispatcher(zap.NewNop().Sugar(), h, src, nil, 1)
	d.backoff = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 175*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, d.Run(ctx), context.DeadlineExceeded)
	assert.GreaterOrEqual(t, src.n(), 2)
	assert.LessOrEqual(t, src.n(), 5)
}

func TestDispatcher_CancelDuringBackoff(t *testing.T) {
	h := NewHandler(zap.NewNop().Sugar(), nopPush{}, staticTokens{}, new(mockMailer))
	src := &brokenSource{}
	d := NewDispatcher(zap.NewNop().Sugar(), h, src, nil, 1)
	d.backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return src.n() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("dispatcher kept sleeping after cancel")
	}
	assert.Equal(t, 1, src.n())
}

func jsonEvent(e events.BookingEvent) ([]byte, error) {
	return jsoniter.ConfigFastest.Marshal(e)
}
