package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/9ssi7/exponent"

	"voyago/internal/domain/bookings"
	"voyago/internal/events"
)

// ErrNoTokens is returned when no admin device is registered.
var ErrNoTokens = errors.New("no push tokens")

// TokenStore is the part of pushtokens.Store the notifier needs.
type TokenStore interface {
	AllTokens(ctx context.Context) ([]string, error)
	RemoveTokens(ctx context.Context, tokens []string) error
}

// Content returns the push title and body for a booking event.
func Content(e events.BookingEvent) (title, body string) {
	if e.Type == events.TypeBookingCreated {
		return "New booking request",
			fmt.Sprintf("%s requested %s for %d traveler(s) (%s)", e.CustomerName, e.Destination, e.Travelers, e.Reference)
	}

	switch e.Status {
	case bookings.StatusConfirmed:
		title = "Booking confirmed"
	case bookings.StatusCancelled:
		title = "Booking cancelled"
	case bookings.StatusCompleted:
		title = "Booking completed"
	default:
		title = "Booking update"
	}
	return title, fmt.Sprintf("%s for %s is now %s", e.Reference, e.CustomerName, e.Status)
}

// SendBookingToAdmins pushes the event to every registered admin device.
// Tokens Expo reports as DeviceNotRegistered are removed. It returns how many
// devices were reached.
func SendBookingToAdmins(ctx context.Context, push PushSender, store TokenStore, e events.BookingEvent) (int, error) {
	tokens, err := store.AllTokens(ctx)
	if err != nil {
		return 0, err
	}
	tokens = dedupe(tokens)
	if len(tokens) == 0 {
		return 0, ErrNoTokens
	}

	title, body := Content(e)

	var (
		sent  int
		stale []string
		errs  []error
	)
	for _, t := range tokens {
		// wrap the string token in exponent.Token
		token := exponent.Token(t)
		msg := &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
			// the admin app deep-links on data.screen
			Data: map[string]string{
				"type":      "booking",
				"event":     e.Type,
				"bookingId": e.BookingID.String(),
				"reference": e.Reference,
				"screen":    "admin/bookings/" + e.BookingID.String(),
			},
		}

		if _, err := push.PublishSingle(ctx, msg); err != nil {
			if strings.Contains(err.Error(), "DeviceNotRegistered") {
				stale = append(stale, t)
				continue
			}
			errs = append(errs, err)
			continue
		}
		sent++
	}

	if len(stale) > 0 {
		if err := store.RemoveTokens(ctx, stale); err != nil {
			errs = append(errs, fmt.Errorf("prune stale tokens: %w", err))
		}
	}

	return sent, errors.Join(errs...)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
