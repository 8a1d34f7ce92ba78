// Package worker consumes booking events and performs their slow side
// effects: admin push notifications and customer e-mail.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"voyago/internal/domain/bookings"
	"voyago/internal/events"
	"voyago/internal/mailer"
	"voyago/internal/metrics"
	"voyago/internal/notifications"
)

// Source is the consumer side of the events topic.
type Source interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

// DeadLetters receives messages that could not be handled.
type DeadLetters interface {
	Publish(ctx context.Context, key, value []byte) error
}

type Handler struct {
	log    *zap.SugaredLogger
	push   notifications.PushSender
	tokens notifications.TokenStore
	mail   mailer.Client
}

func NewHandler(log *zap.SugaredLogger, push notifications.PushSender, tokens notifications.TokenStore, mail mailer.Client) *Handler {
	return &Handler{log: log, push: push, tokens: tokens, mail: mail}
}

// Handle applies one event. Missing admin devices are not an error; a failed
// confirmation e-mail is.
func (h *Handler) Handle(ctx context.Context, e events.BookingEvent) error {
	sent, err := notifications.SendBookingToAdmins(ctx, h.push, h.tokens, e)
	switch {
	case errors.Is(err, notifications.ErrNoTokens):
		h.log.Debugw("no admin devices registered", "reference", e.Reference)
	case err != nil:
		h.log.Warnw("admin push partly failed", "reference", e.Reference, "sent", sent, "error", err)
	default:
		h.log.Infow("admin push sent", "reference", e.Reference, "devices", sent)
	}
	metrics.PushNotificationsTotal.Add(float64(sent))

	if e.Type == events.TypeBookingStatusChanged && e.Status == bookings.StatusConfirmed {
		if err := h.mail.Send(mailer.BookingConfirmedTemplate, e.CustomerName, e.CustomerEmail, e); err != nil {
			return fmt.Errorf("booking %s confirmation mail: %w", e.Reference, err)
		}
		h.log.Infow("confirmation mail sent", "reference", e.Reference)
	}
	return nil
}

// fetchBackoff is the pause after a failed fetch, e.g. while the broker is
// unreachable.
const fetchBackoff = time.Second

type Dispatcher struct {
	log        *zap.SugaredLogger
	handler    *Handler
	source     Source
	dlq        DeadLetters
	maxWorkers int
	backoff    time.Duration
}

func NewDispatcher(log *zap.SugaredLogger, h *Handler, src Source, dlq DeadLetters, maxWorkers int) *Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Dispatcher{log: log, handler: h, source: src, dlq: dlq, maxWorkers: maxWorkers, backoff: fetchBackoff}
}

// Run fetches messages until ctx is cancelled, handling up to maxWorkers at
// once. Handled messages are committed; failed ones go to the dead letter
// topic and are committed too so the partition keeps moving.
func (d *Dispatcher) Run(ctx context.Context) error {
	sem := make(chan struct{}, d.maxWorkers)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		m, err := d.source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.log.Errorw("failed to read message", "error", err, "retry_in", d.backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.backoff):
			}
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(m kafka.Message) {
			defer func() { <-sem; wg.Done() }()
			d.process(ctx, m)
		}(m)
	}
}

func (d *Dispatcher) process(ctx context.Context, m kafka.Message) {
	outcome := "ok"
	defer func() { metrics.EventsConsumedTotal.WithLabelValues(outcome).Inc() }()

	e, err := events.Decode(m.Value)
	if err == nil {
		err = d.handler.Handle(ctx, e)
	}
	if err != nil {
		outcome = "failed"
		d.log.Errorw("failed to handle booking event", "offset", m.Offset, "error", err)
		if d.dlq != nil {
			if dlqErr := d.dlq.Publish(ctx, m.Key, m.Value); dlqErr != nil {
				d.log.Errorw("dead letter publish failed", "offset", m.Offset, "error", dlqErr)
				return
			}
		}
	}

	if err := d.source.Commit(ctx, m); err != nil {
		d.log.Errorw("commit failed", "offset", m.Offset, "error", err)
	}
}
