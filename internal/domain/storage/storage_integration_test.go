package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"voyago/internal/db"
	"voyago/internal/domain/bookings"
	"voyago/internal/domain/destinations"
	"voyago/internal/domain/guides"
	"voyago/internal/domain/notifications"
	"voyago/internal/domain/reviews"
	"voyago/internal/params"
)

// startPostgres runs a throwaway postgres, applies the migrations and returns
// a pool on it. Set VOYAGO_INTEGRATION=1 to run.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("VOYAGO_INTEGRATION") != "1" {
		t.Skip("set VOYAGO_INTEGRATION=1 to run postgres integration tests")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "voyago",
			"POSTGRES_PASSWORD": "voyago",
			"POSTGRES_DB":       "voyago",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	addr := fmt.Sprintf("postgres://voyago:voyago@%s:%s/voyago?sslmode=disable", host, port.Port())

	migrator, err := db.OpenMigrator(ctx, addr)
	require.NoError(t, err)
	applied, err := db.Migrate(ctx, migrator)
	require.NoError(t, err)
	require.NotEmpty(t, applied)

	// a second run is a no-op
	again, err := db.Migrate(ctx, migrator)
	require.NoError(t, err)
	assert.Empty(t, again)
	require.NoError(t, migrator.Close())

	pool, err := db.New(addr, 5, "1m")
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func newTestContainer(t *testing.T) *Container {
	t.Helper()
	pool := startPostgres(t)
	refs, err := bookings.NewReferenceCoder("integration-salt")
	require.NoError(t, err)
	return NewContainer(pool, refs)
}

func TestStorageIntegration(t *testing.T) {
	store := newTestContainer(t)
	ctx := context.Background()

	lisbon := &destinations.Destination{Name: "Lisbon", Slug: "lisbon", Country: "Portugal", Description: "Tiles and tram 28.", Price: 400, DurationDays: 4, Rating: 4.5, Featured: true}
	kyoto := &destinations.Destination{Name: "Kyoto", Slug: "kyoto", Country: "Japan", Description: "Temples and tea houses.", Price: 1200, DurationDays: 7, Rating: 4.9}
	require.NoError(t, store.Destinations.Create(ctx, lisbon))
	require.NoError(t, store.Destinations.Create(ctx, kyoto))

	dup := *lisbon
	assert.ErrorIs(t, store.Destinations.Create(ctx, &dup), db.ErrConflict)

	got, err := store.Destinations.GetBySlug(ctx, "lisbon")
	require.NoError(t, err)
	assert.Equal(t, lisbon.ID, got.ID)

	ana := &guides.Guide{Name: "Ana", Email: "ana@voyago.travel", Languages: []string{"pt", "en"}, Specialties: []string{}, Available: true, Rating: 4.8, DestinationIDs: []uuid.UUID{lisbon.ID}}
	require.NoError(t, store.Guides.Create(ctx, ana))

	g, err := store.Guides.GetByID(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{lisbon.ID}, g.DestinationIDs)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	mk := func(dest uuid.UUID, guide *uuid.UUID, status string, amount float64, travelers int, start time.Time) *bookings.Booking {
		b := &bookings.Booking{
			CustomerName:  "Mara",
			CustomerEmail: "mara@example.com",
			DestinationID: dest,
			GuideID:       guide,
			StartDate:     start,
			EndDate:       start.AddDate(0, 0, 3),
			Travelers:     travelers,
			Amount:        amount,
			Status:        status,
		}
		require.NoError(t, store.Bookings.Create(ctx, b))
		return b
	}

	past := mk(lisbon.ID, &ana.ID, bookings.StatusConfirmed, 800, 2, today.AddDate(0, 0, -10))
	mk(lisbon.ID, nil, bookings.StatusPending, 400, 1, today.AddDate(0, 1, 0))
	mk(kyoto.ID, nil, bookings.StatusCancelled, 1200, 1, today.AddDate(0, 2, 0))
	future := mk(kyoto.ID, &ana.ID, bookings.StatusConfirmed, 2400, 2, today.AddDate(0, 0, 5))

	assert.Regexp(t, `^VYG-[A-Z0-9]+$`, past.Reference)
	byRef, err := store.Bookings.GetByReference(ctx, past.Reference)
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", byRef.DestinationName)
	require.NotNil(t, byRef.GuideName)
	assert.Equal(t, "Ana", *byRef.GuideName)

	_, err = store.Bookings.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, db.ErrNotFound)

	t.Run("destination with bookings cannot be deleted", func(t *testing.T) {
		assert.ErrorIs(t, store.Destinations.Delete(ctx, lisbon.ID), db.ErrInUse)
	})

	t.Run("booking to unknown destination", func(t *testing.T) {
		b := &bookings.Booking{CustomerName: "X", CustomerEmail: "x@example.com", DestinationID: uuid.New(), StartDate: today, EndDate: today, Travelers: 1, Status: bookings.StatusPending}
		assert.ErrorIs(t, store.Bookings.Create(ctx, b), db.ErrInvalidReference)
	})

	t.Run("dashboard aggregates", func(t *testing.T) {
		totals, err := store.Dashboard.BookingTotals(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), totals.Bookings)
		assert.Equal(t, int64(1), totals.Pending)
		assert.InDelta(t, 3200, totals.Revenue, 0.001)
		assert.Equal(t, int64(2), totals.Paid)
		assert.Equal(t, int64(5), totals.Travelers)

		counts, err := store.Dashboard.StatusCounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts[bookings.StatusConfirmed])
		assert.Equal(t, int64(1), counts[bookings.StatusCancelled])

		guideCounts, err := store.Dashboard.GuideCounts(ctx)
		require.NoError(t, err)
		require.Len(t, guideCounts, 1)
		assert.Equal(t, ana.ID, guideCounts[0].ID)
		assert.Equal(t, int64(2), guideCounts[0].Bookings)

		monthly, err := store.Dashboard.Monthly(ctx, time.Now().UTC().Year())
		require.NoError(t, err)
		var n int64
		for _, m := range monthly {
			n += m.Bookings
		}
		assert.Equal(t, int64(4), n)
	})

	t.Run("completion job closes finished trips", func(t *testing.T) {
		err := store.WithTx(ctx, func(tx *Container) error {
			n, err := tx.Bookings.MarkCompleted(ctx, today)
			if err != nil {
				return err
			}
			assert.Equal(t, int64(1), n)
			return tx.Notifications.Create(ctx, &notifications.Notification{
				Type:    notifications.TypeSystem,
				Title:   "Trips completed",
				Message: "1 booking marked completed",
			})
		})
		require.NoError(t, err)

		b, err := store.Bookings.GetByID(ctx, past.ID)
		require.NoError(t, err)
		assert.Equal(t, bookings.StatusCompleted, b.Status)

		b, err = store.Bookings.GetByID(ctx, future.ID)
		require.NoError(t, err)
		assert.Equal(t, bookings.StatusConfirmed, b.Status)
	})

	t.Run("rolled back transaction leaves no trace", func(t *testing.T) {
		err := store.WithTx(ctx, func(tx *Container) error {
			if _, err := tx.Bookings.MarkCompleted(ctx, today.AddDate(1, 0, 0)); err != nil {
				return err
			}
			return fmt.Errorf("abort")
		})
		require.Error(t, err)

		b, err := store.Bookings.GetByID(ctx, future.ID)
		require.NoError(t, err)
		assert.Equal(t, bookings.StatusConfirmed, b.Status)
	})

	t.Run("status change records a notification", func(t *testing.T) {
		status := bookings.StatusCancelled
		updated, previous, err := store.Bookings.Update(ctx, future.ID, bookings.Patch{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, bookings.StatusConfirmed, previous)
		assert.Equal(t, bookings.StatusCancelled, updated.Status)

		st, err := store.Notifications.Stats(ctx, time.Now())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, st.Total, int64(2))
	})

	t.Run("reviews feed the community summary", func(t *testing.T) {
		rv := &reviews.Review{DestinationID: lisbon.ID, AuthorName: "Joe", Rating: 5, Comment: "Loved every tram ride."}
		require.NoError(t, store.Reviews.Create(ctx, rv))

		_, summary, err := store.Reviews.Community(ctx, 10)
		require.NoError(t, err)
		assert.Zero(t, summary.Total)

		approved := true
		_, err = store.Reviews.Update(ctx, rv.ID, reviews.Patch{Approved: &approved})
		require.NoError(t, err)

		items, summary, err := store.Reviews.Community(ctx, 10)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, int64(1), summary.Total)
		assert.InDelta(t, 5.0, summary.Average, 0.001)
	})

	t.Run("push tokens", func(t *testing.T) {
		admin := uuid.New()
		_, err := store.pool.Exec(ctx, `INSERT INTO admins (id, name, email, password, role) VALUES ($1, 'Ada', 'ada@voyago.travel', 'x', 'admin')`, admin)
		require.NoError(t, err)

		require.NoError(t, store.PushTokens.Upsert(ctx, admin, "ExponentPushToken[a]", nil))
		require.NoError(t, store.PushTokens.Upsert(ctx, admin, "ExponentPushToken[a]", nil))

		tokens, err := store.PushTokens.AllTokens(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"ExponentPushToken[a]"}, tokens)

		pruned, err := store.PushTokens.PruneStale(ctx, 90*24*time.Hour)
		require.NoError(t, err)
		assert.Zero(t, pruned)
	})

	t.Run("guide update writes array columns", func(t *testing.T) {
		off := false
		updated, err := store.Guides.Update(ctx, ana.ID, guides.Patch{
			Languages:      []string{"pt", "en", "es"},
			Specialties:    []string{"food tours", "history"},
			Available:      &off,
			DestinationIDs: &[]uuid.UUID{lisbon.ID, kyoto.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"pt", "en", "es"}, updated.Languages)
		assert.Equal(t, []string{"food tours", "history"}, updated.Specialties)
		assert.False(t, updated.Available)
		assert.ElementsMatch(t, []uuid.UUID{lisbon.ID, kyoto.ID}, updated.DestinationIDs)

		on := true
		updated, err = store.Guides.Update(ctx, ana.ID, guides.Patch{Specialties: []string{}, Available: &on})
		require.NoError(t, err)
		assert.Empty(t, updated.Specialties)
		assert.Equal(t, []string{"pt", "en", "es"}, updated.Languages)

		_, err = store.Guides.Update(ctx, uuid.New(), guides.Patch{Languages: []string{"fr"}})
		assert.ErrorIs(t, err, db.ErrNotFound)
	})

	t.Run("bookings list filters", func(t *testing.T) {
		page := params.Pagination{Limit: 10}
		list := func(f bookings.Filter) ([]bookings.Booking, int) {
			f.Pagination = page
			items, total, err := store.Bookings.List(ctx, f)
			require.NoError(t, err)
			return items, total
		}

		_, total := list(bookings.Filter{})
		assert.Equal(t, 4, total)

		_, total = list(bookings.Filter{DestinationID: &lisbon.ID})
		assert.Equal(t, 2, total)

		_, total = list(bookings.Filter{GuideID: &ana.ID})
		assert.Equal(t, 2, total)

		cancelled := bookings.StatusCancelled
		items, total := list(bookings.Filter{Status: &cancelled, GuideID: &ana.ID})
		require.Equal(t, 1, total)
		assert.Equal(t, future.ID, items[0].ID)

		from, to := today, today.AddDate(0, 1, 1)
		_, total = list(bookings.Filter{From: &from, To: &to})
		assert.Equal(t, 2, total)

		ref := strings.ToLower(past.Reference)
		items, total = list(bookings.Filter{Search: &ref})
		require.Equal(t, 1, total)
		assert.Equal(t, past.ID, items[0].ID)

		name := "MARA"
		_, total = list(bookings.Filter{Search: &name})
		assert.Equal(t, 4, total)

		items, total, err := store.Bookings.List(ctx, bookings.Filter{Pagination: params.Pagination{Limit: 1, Offset: 1}})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Len(t, items, 1)
	})

	t.Run("period totals and destination counts", func(t *testing.T) {
		now := time.Now().UTC()
		current, err := store.Dashboard.PeriodTotals(ctx, now.Add(-time.Hour), now.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(4), current.Bookings)
		assert.InDelta(t, 800, current.Revenue, 0.001) // only the completed trip is paid now
		assert.Equal(t, int64(3), current.Travelers)

		earlier, err := store.Dashboard.PeriodTotals(ctx, now.AddDate(0, 0, -2), now.AddDate(0, 0, -1))
		require.NoError(t, err)
		assert.Zero(t, earlier.Bookings)
		assert.Zero(t, earlier.Revenue)

		counts, err := store.Dashboard.DestinationCounts(ctx)
		require.NoError(t, err)
		require.Len(t, counts, 2)
		assert.Equal(t, lisbon.ID, counts[0].ID)
		assert.Equal(t, int64(2), counts[0].Bookings)
		assert.InDelta(t, 800, counts[0].Revenue, 0.001)
		assert.Equal(t, kyoto.ID, counts[1].ID)
		assert.Equal(t, int64(2), counts[1].Bookings)
		assert.Zero(t, counts[1].Revenue)

		names, err := store.Destinations.Names(ctx, []uuid.UUID{lisbon.ID, kyoto.ID, uuid.New()})
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]string{lisbon.ID: "Lisbon", kyoto.ID: "Kyoto"}, names)

		guideNames, err := store.Guides.Names(ctx, []uuid.UUID{ana.ID})
		require.NoError(t, err)
		assert.Equal(t, "Ana", guideNames[ana.ID])
	})

	t.Run("booking patch clears the guide", func(t *testing.T) {
		updated, _, err := store.Bookings.Update(ctx, past.ID, bookings.Patch{ClearGuide: true})
		require.NoError(t, err)
		assert.Nil(t, updated.GuideID)
		assert.Nil(t, updated.GuideName)

		updated, _, err = store.Bookings.Update(ctx, past.ID, bookings.Patch{GuideID: &ana.ID})
		require.NoError(t, err)
		require.NotNil(t, updated.GuideID)
		assert.Equal(t, ana.ID, *updated.GuideID)
	})

	t.Run("review delete recomputes ratings", func(t *testing.T) {
		rv := &reviews.Review{DestinationID: kyoto.ID, GuideID: &ana.ID, AuthorName: "Kenji", Rating: 4, Comment: "Patient and very well read.", Approved: true}
		require.NoError(t, store.Reviews.Create(ctx, rv))

		d, err := store.Destinations.GetByID(ctx, kyoto.ID)
		require.NoError(t, err)
		assert.InDelta(t, 4.0, d.Rating, 0.001)
		g, err := store.Guides.GetByID(ctx, ana.ID)
		require.NoError(t, err)
		assert.InDelta(t, 4.0, g.Rating, 0.001)

		require.NoError(t, store.Reviews.Delete(ctx, rv.ID))
		assert.ErrorIs(t, store.Reviews.Delete(ctx, rv.ID), db.ErrNotFound)

		d, err = store.Destinations.GetByID(ctx, kyoto.ID)
		require.NoError(t, err)
		assert.Zero(t, d.Rating)
		g, err = store.Guides.GetByID(ctx, ana.ID)
		require.NoError(t, err)
		assert.Zero(t, g.Rating)
	})

	var lisbonReview *reviews.Review
	t.Run("destination delete re-scores guides", func(t *testing.T) {
		porto := &destinations.Destination{Name: "Porto", Slug: "porto", Country: "Portugal", Description: "Port cellars by the river.", Price: 300, DurationDays: 3}
		require.NoError(t, store.Destinations.Create(ctx, porto))

		require.NoError(t, store.Reviews.Create(ctx, &reviews.Review{DestinationID: porto.ID, GuideID: &ana.ID, AuthorName: "Rui", Rating: 2, Comment: "Rushed the cellar visit.", Approved: true}))
		lisbonReview = &reviews.Review{DestinationID: lisbon.ID, GuideID: &ana.ID, AuthorName: "Eva", Rating: 4, Comment: "Great stories in Alfama.", Approved: true}
		require.NoError(t, store.Reviews.Create(ctx, lisbonReview))

		g, err := store.Guides.GetByID(ctx, ana.ID)
		require.NoError(t, err)
		assert.InDelta(t, 3.0, g.Rating, 0.001)

		require.NoError(t, store.Destinations.Delete(ctx, porto.ID))

		g, err = store.Guides.GetByID(ctx, ana.ID)
		require.NoError(t, err)
		assert.InDelta(t, 4.0, g.Rating, 0.001)

		_, err = store.Destinations.GetByID(ctx, porto.ID)
		assert.ErrorIs(t, err, db.ErrNotFound)
		assert.ErrorIs(t, store.Destinations.Delete(ctx, porto.ID), db.ErrNotFound)
	})

	t.Run("destination update", func(t *testing.T) {
		price, featured, name := 450.0, false, "Lisboa"
		updated, err := store.Destinations.Update(ctx, lisbon.ID, destinations.Patch{Name: &name, Price: &price, Featured: &featured})
		require.NoError(t, err)
		assert.Equal(t, "Lisboa", updated.Name)
		assert.Equal(t, "lisbon", updated.Slug)
		assert.InDelta(t, 450, updated.Price, 0.001)
		assert.False(t, updated.Featured)

		taken := "lisbon"
		_, err = store.Destinations.Update(ctx, kyoto.ID, destinations.Patch{Slug: &taken})
		assert.ErrorIs(t, err, db.ErrConflict)

		_, err = store.Destinations.Update(ctx, uuid.New(), destinations.Patch{Name: &name})
		assert.ErrorIs(t, err, db.ErrNotFound)
	})

	t.Run("booking delete drops its notifications", func(t *testing.T) {
		countNotes := func() int {
			var n int
			require.NoError(t, store.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE booking_id = $1`, future.ID).Scan(&n))
			return n
		}
		require.Positive(t, countNotes())

		require.NoError(t, store.Bookings.Delete(ctx, future.ID))
		assert.Zero(t, countNotes())

		_, err := store.Bookings.GetByID(ctx, future.ID)
		assert.ErrorIs(t, err, db.ErrNotFound)
		assert.ErrorIs(t, store.Bookings.Delete(ctx, future.ID), db.ErrNotFound)
	})

	t.Run("guide delete detaches bookings and reviews", func(t *testing.T) {
		require.NotNil(t, lisbonReview)
		require.NoError(t, store.Guides.Delete(ctx, ana.ID))

		b, err := store.Bookings.GetByID(ctx, past.ID)
		require.NoError(t, err)
		assert.Nil(t, b.GuideID)

		rv, err := store.Reviews.GetByID(ctx, lisbonReview.ID)
		require.NoError(t, err)
		assert.Nil(t, rv.GuideID)

		_, err = store.Guides.GetByID(ctx, ana.ID)
		assert.ErrorIs(t, err, db.ErrNotFound)
		assert.ErrorIs(t, store.Guides.Delete(ctx, ana.ID), db.ErrNotFound)

		counts, err := store.Dashboard.GuideCounts(ctx)
		require.NoError(t, err)
		assert.Empty(t, counts)
	})
}
