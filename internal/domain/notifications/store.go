package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"voyago/internal/db"
	"voyago/internal/stats"
)

type Store interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, f Filter) ([]Notification, int, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, now time.Time) (*Stats, error)
}

type Repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Store {
	return &Repository{db: conn}
}

func (r *Repository) Create(ctx context.Context, n *Notification) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	const q = `
		INSERT INTO notifications (type, title, message, booking_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, read, created_at`

	err := r.db.QueryRow(ctx, q, n.Type, n.Title, n.Message, n.BookingID).
		Scan(&n.ID, &n.Read, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", db.MapError(err))
	}
	return nil
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Notification, int, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	where := []goqu.Expression{}
	if f.Unread {
		where = append(where, goqu.C("read").IsFalse())
	}
	if f.Type != nil {
		where = append(where, goqu.C("type").Eq(*f.Type))
	}

	base := db.SQL.From("notifications").Where(where...)

	countSQL, countArgs, err := db.Build(base.Select(goqu.COUNT(goqu.Star())).Prepared(true))
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	listSQL, args, err := db.Build(base.
		Select("id", "type", "title", "message", "booking_id", "read", "created_at").
		Order(goqu.C("created_at").Desc()).
		Limit(uint(f.Pagination.Limit)).
		Offset(uint(f.Pagination.Offset)).
		Prepared(true))
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.BookingID, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE read = FALSE`)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// Stats counts notifications overall, unread, per type and over the seven
// days before now.
func (r *Repository) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	var s Stats
	const totals = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE read = FALSE),
			COUNT(*) FILTER (WHERE created_at >= $1)
		FROM notifications`
	if err := r.db.QueryRow(ctx, totals, now.AddDate(0, 0, -7)).Scan(&s.Total, &s.Unread, &s.LastWeek); err != nil {
		return nil, fmt.Errorf("notification totals: %w", err)
	}
	s.Read = s.Total - s.Unread

	rows, err := r.db.Query(ctx, `SELECT type, COUNT(*) FROM notifications GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("notification types: %w", err)
	}
	defer rows.Close()

	byType := map[string]int64{}
	for rows.Next() {
		var t string
		var n int64
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		byType[t] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.ByType = stats.ZeroFill(byType, Types)

	return &s, nil
}
