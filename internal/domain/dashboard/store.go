package dashboard

import (
	"context"
	"fmt"
	"time"

	"voyago/internal/db"
	"voyago/internal/stats"
)

// Store runs the aggregate queries behind the dashboard. Each method is one
// round trip so the service can fan them out concurrently.
type Store interface {
	BookingTotals(ctx context.Context) (BookingTotals, error)
	PeriodTotals(ctx context.Context, from, to time.Time) (PeriodTotals, error)
	StatusCounts(ctx context.Context) (map[string]int64, error)
	DestinationCounts(ctx context.Context) ([]stats.GroupCount, error)
	GuideCounts(ctx context.Context) ([]stats.GroupCount, error)
	Monthly(ctx context.Context, year int) ([]stats.MonthBucket, error)
	Destinations(ctx context.Context) ([]stats.RatedItem, error)
	Guides(ctx context.Context) ([]stats.RatedItem, error)
	ReviewCount(ctx context.Context) (int64, error)
}

type Repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Store {
	return &Repository{db: conn}
}

const (
	paidFilter   = `status IN ('confirmed', 'completed')`
	activeFilter = `status <> 'cancelled'`
)

func (r *Repository) BookingTotals(ctx context.Context) (BookingTotals, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	q := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COALESCE(SUM(amount) FILTER (WHERE ` + paidFilter + `), 0)::float8,
			COUNT(*) FILTER (WHERE ` + paidFilter + `),
			COALESCE(SUM(travelers) FILTER (WHERE ` + activeFilter + `), 0)
		FROM bookings`

	var t BookingTotals
	if err := r.db.QueryRow(ctx, q).Scan(&t.Bookings, &t.Pending, &t.Revenue, &t.Paid, &t.Travelers); err != nil {
		return t, fmt.Errorf("booking totals: %w", err)
	}
	return t, nil
}

// PeriodTotals aggregates bookings created in [from, to).
func (r *Repository) PeriodTotals(ctx context.Context, from, to time.Time) (PeriodTotals, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	q := `
		SELECT
			COUNT(*),
			COALESCE(SUM(amount) FILTER (WHERE ` + paidFilter + `), 0)::float8,
			COALESCE(SUM(travelers) FILTER (WHERE ` + activeFilter + `), 0)
		FROM bookings
		WHERE created_at >= $1 AND created_at < $2`

	var t PeriodTotals
	if err := r.db.QueryRow(ctx, q, from, to).Scan(&t.Bookings, &t.Revenue, &t.Travelers); err != nil {
		return t, fmt.Errorf("period totals: %w", err)
	}
	return t, nil
}

func (r *Repository) StatusCounts(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM bookings GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// DestinationCounts groups bookings per destination in order of each
// destination's first booking, which is the tie order of the rankings.
func (r *Repository) DestinationCounts(ctx context.Context) ([]stats.GroupCount, error) {
	return r.groupCounts(ctx, "destination_id")
}

// GuideCounts is DestinationCounts for guides; unguided bookings are skipped.
func (r *Repository) GuideCounts(ctx context.Context) ([]stats.GroupCount, error) {
	return r.groupCounts(ctx, "guide_id")
}

func (r *Repository) groupCounts(ctx context.Context, column string) ([]stats.GroupCount, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	q := `
		SELECT ` + column + `, COUNT(*), COALESCE(SUM(amount) FILTER (WHERE ` + paidFilter + `), 0)::float8
		FROM bookings
		WHERE ` + column + ` IS NOT NULL
		GROUP BY ` + column + `
		ORDER BY MIN(created_at), ` + column

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s counts: %w", column, err)
	}
	defer rows.Close()

	out := []stats.GroupCount{}
	for rows.Next() {
		var g stats.GroupCount
		if err := rows.Scan(&g.ID, &g.Bookings, &g.Revenue); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Monthly buckets the bookings created during year by calendar month (UTC).
func (r *Repository) Monthly(ctx context.Context, year int) ([]stats.MonthBucket, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	q := `
		SELECT
			EXTRACT(MONTH FROM created_at AT TIME ZONE 'UTC')::int AS month,
			COUNT(*),
			COALESCE(SUM(amount) FILTER (WHERE ` + paidFilter + `), 0)::float8,
			COALESCE(SUM(travelers) FILTER (WHERE ` + activeFilter + `), 0)
		FROM bookings
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY month
		ORDER BY month`

	rows, err := r.db.Query(ctx, q, from, to)
	if err != nil {
		return nil, fmt.Errorf("monthly bookings: %w", err)
	}
	defer rows.Close()

	out := []stats.MonthBucket{}
	for rows.Next() {
		var b stats.MonthBucket
		if err := rows.Scan(&b.Month, &b.Bookings, &b.Revenue, &b.Travelers); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) Destinations(ctx context.Context) ([]stats.RatedItem, error) {
	return r.rated(ctx, `SELECT id, name, rating::float8, featured FROM destinations`)
}

func (r *Repository) Guides(ctx context.Context) ([]stats.RatedItem, error) {
	return r.rated(ctx, `SELECT id, name, rating::float8, available FROM guides`)
}

func (r *Repository) rated(ctx context.Context, q string) ([]stats.RatedItem, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("rated items: %w", err)
	}
	defer rows.Close()

	out := []stats.RatedItem{}
	for rows.Next() {
		var it stats.RatedItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Rating, &it.Flag); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repository) ReviewCount(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&n); err != nil {
		return 0, fmt.Errorf("review count: %w", err)
	}
	return n, nil
}
