package main

import (
	"context"
	"fmt"
	"time"

	"voyago/internal/domain/notifications"
	"voyago/internal/domain/storage"
	"voyago/internal/metrics"
)

const (
	completeInterval = 30 * time.Minute
	pruneInterval    = 24 * time.Hour
	staleTokenAge    = 90 * 24 * time.Hour
)

// startBackgroundJobs runs the periodic jobs until ctx is cancelled.
func (app *application) startBackgroundJobs(ctx context.Context) {
	go app.every(ctx, completeInterval, "complete finished bookings", app.completeFinishedBookings)
	go app.every(ctx, pruneInterval, "prune stale push tokens", app.pruneStaleTokens)
}

// every runs job once immediately, then on each tick.
func (app *application) every(ctx context.Context, interval time.Duration, name string, job func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := job(ctx); err != nil {
			app.logger.Errorw("background job failed", "job", name, "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// completeFinishedBookings marks confirmed bookings whose end date has passed
// as completed and leaves a system notification with the count.
func (app *application) completeFinishedBookings(ctx context.Context) error {
	now := app.clock()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var completed int64
	err := app.store.WithTx(ctx, func(tx *storage.Container) error {
		n, err := tx.Bookings.MarkCompleted(ctx, today)
		if err != nil {
			return err
		}
		completed = n
		if n == 0 {
			return nil
		}

		return tx.Notifications.Create(ctx, &notifications.Notification{
			Type:    notifications.TypeSystem,
			Title:   "Trips completed",
			Message: fmt.Sprintf("%d confirmed booking(s) ended and were marked completed", n),
		})
	})
	if err != nil {
		return fmt.Errorf("complete finished bookings: %w", err)
	}

	if completed > 0 {
		metrics.CompletedBookingsTotal.Add(float64(completed))
		app.invalidateStats(ctx)
		app.logger.Infow("marked bookings as completed", "count", completed, "at", now.Format(time.RFC1123))
	}
	return nil
}

func (app *application) pruneStaleTokens(ctx context.Context) error {
	n, err := app.store.PushTokens.PruneStale(ctx, staleTokenAge)
	if err != nil {
		return err
	}
	if n > 0 {
		app.logger.Infow("pruned stale push tokens", "count", n)
	}
	return nil
}
