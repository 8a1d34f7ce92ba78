package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/9ssi7/exponent"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"voyago/internal/events"
)

type mockPush struct{ mock.Mock }

func (m *mockPush) Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	args := m.Called(ctx, msgs)
	return nil, args.Error(0)
}

func (m *mockPush) PublishSingle(ctx context.Context, msg *exponent.Message) ([]*exponent.MessageResponse, error) {
	args := m.Called(ctx, string(*msg.To[0]))
	return nil, args.Error(0)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) AllTokens(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockTokens) RemoveTokens(ctx context.Context, tokens []string) error {
	return m.Called(ctx, tokens).Error(0)
}

func event() events.BookingEvent {
	return events.BookingEvent{
		Type:         events.TypeBookingCreated,
		BookingID:    uuid.New(),
		Reference:    "VYG-AB12CD34",
		Status:       "pending",
		CustomerName: "Mara",
		Destination:  "Lisbon",
		Travelers:    2,
	}
}

func TestSendBookingToAdmins(t *testing.T) {
	ctx := context.Background()
	push := new(mockPush)
	tokens := new(mockTokens)

	tokens.On("AllTokens", ctx).Return([]string{"tok-a", "tok-b", "tok-a", "tok-gone"}, nil)
	push.On("PublishSingle", ctx, "tok-a").Return(nil).Once()
	push.On("PublishSingle", ctx, "tok-b").Return(nil).Once()
	push.On("PublishSingle", ctx, "tok-gone").Return(errors.New(`expo: DeviceNotRegistered: "tok-gone" is not a registered push notification recipient`)).Once()
	tokens.On("RemoveTokens", ctx, []string{"tok-gone"}).Return(nil).Once()

	sent, err := SendBookingToAdmins(ctx, push, tokens, event())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	push.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestSendBookingToAdmins_NoTokens(t *testing.T) {
	ctx := context.Background()
	tokens := new(mockTokens)
	tokens.On("AllTokens", ctx).Return([]string{}, nil)

	_, err := SendBookingToAdmins(ctx, new(mockPush), tokens, event())
	assert.ErrorIs(t, err, ErrNoTokens)
}

func TestSendBookingToAdmins_PublishError(t *testing.T) {
	ctx := context.Background()
	push := new(mockPush)
	tokens := new(mockTokens)

	tokens.On("AllTokens", ctx).Return([]string{"tok-a"}, nil)
	push.On("PublishSingle", ctx, "tok-a").Return(errors.New("503 service unavailable"))

	sent, err := SendBookingToAdmins(ctx, push, tokens, event())
	assert.Error(t, err)
	assert.Zero(t, sent)
	tokens.AssertNotCalled(t, "RemoveTokens", mock.Anything, mock.Anything)
}

func TestContent(t *testing.T) {
	title, body := Content(event())
	assert.Equal(t, "New booking request", title)
	assert.Contains(t, body, "Lisbon")

	e := event()
	e.Type = events.TypeBookingStatusChanged
	e.Status = "confirmed"
	title, body = Content(e)
	assert.Equal(t, "Booking confirmed", title)
	assert.Contains(t, body, "VYG-AB12CD34")
}
