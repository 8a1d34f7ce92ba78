package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"voyago/internal/db"
	"voyago/internal/domain/notifications"
)

type Store interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByReference(ctx context.Context, ref string) (*Booking, error)
	List(ctx context.Context, f Filter) ([]Booking, int, error)
	Update(ctx context.Context, id uuid.UUID, p Patch) (updated *Booking, previousStatus string, err error)
	Delete(ctx context.Context, id uuid.UUID) error
	Recent(ctx context.Context, limit int) ([]Booking, error)
	MarkCompleted(ctx context.Context, before time.Time) (int64, error)
}

type Repository struct {
	db    db.DBTX
	codes *ReferenceCoder
}

func NewRepository(conn db.DBTX, codes *ReferenceCoder) Store {
	return &Repository{db: conn, codes: codes}
}

var selectColumns = []interface{}{
	goqu.I("b.id"),
	goqu.I("b.reference"),
	goqu.I("b.customer_name"),
	goqu.I("b.customer_email"),
	goqu.I("b.customer_phone"),
	goqu.I("b.destination_id"),
	goqu.L("COALESCE(d.name, 'Unknown')"),
	goqu.I("b.guide_id"),
	goqu.I("g.name"),
	goqu.I("b.start_date"),
	goqu.I("b.end_date"),
	goqu.I("b.travelers"),
	goqu.I("b.amount"),
	goqu.I("b.status"),
	goqu.I("b.notes"),
	goqu.I("b.created_at"),
	goqu.I("b.updated_at"),
}

func baseQuery() *goqu.SelectDataset {
	return db.SQL.From(goqu.T("bookings").As("b")).
		LeftJoin(goqu.T("destinations").As("d"), goqu.On(goqu.I("d.id").Eq(goqu.I("b.destination_id")))).
		LeftJoin(goqu.T("guides").As("g"), goqu.On(goqu.I("g.id").Eq(goqu.I("b.guide_id"))))
}

func scanBooking(row pgx.Row, b *Booking) error {
	return row.Scan(
		&b.ID,
		&b.Reference,
		&b.CustomerName,
		&b.CustomerEmail,
		&b.CustomerPhone,
		&b.DestinationID,
		&b.DestinationName,
		&b.GuideID,
		&b.GuideName,
		&b.StartDate,
		&b.EndDate,
		&b.Travelers,
		&b.Amount,
		&b.Status,
		&b.Notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
}

// Create inserts the booking and its "new booking" notification in one
// transaction. The public reference is derived from the row's sequence value.
func (r *Repository) Create(ctx context.Context, b *Booking) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	if b.Status == "" {
		b.Status = StatusPending
	}

	return db.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		var seq int64
		if err := tx.QueryRow(ctx, `SELECT nextval(pg_get_serial_sequence('bookings', 'seq'))`).Scan(&seq); err != nil {
			return fmt.Errorf("next booking seq: %w", err)
		}

		ref, err := r.codes.Encode(seq)
		if err != nil {
			return err
		}

		const q = `
			INSERT INTO bookings (
				seq, reference, customer_name, customer_email, customer_phone,
				destination_id, guide_id, start_date, end_date, travelers,
				amount, status, notes
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id, created_at, updated_at`

		err = tx.QueryRow(ctx, q,
			seq,
			ref,
			b.CustomerName,
			b.CustomerEmail,
			b.CustomerPhone,
			b.DestinationID,
			b.GuideID,
			b.StartDate,
			b.EndDate,
			b.Travelers,
			b.Amount,
			b.Status,
			b.Notes,
		).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert booking: %w", db.MapError(err))
		}
		b.Reference = ref

		n := &notifications.Notification{
			Type:      notifications.TypeBooking,
			Title:     "New booking request",
			Message:   fmt.Sprintf("%s requested %s for %d traveler(s), starting %s.", b.CustomerName, ref, b.Travelers, b.StartDate.Format("2006-01-02")),
			BookingID: &b.ID,
		}
		return notifications.NewRepository(tx).Create(ctx, n)
	})
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return r.getOne(ctx, goqu.I("b.id").Eq(id))
}

func (r *Repository) GetByReference(ctx context.Context, ref string) (*Booking, error) {
	return r.getOne(ctx, goqu.I("b.reference").Eq(ref))
}

func (r *Repository) getOne(ctx context.Context, where goqu.Expression) (*Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	q, args, err := db.Build(baseQuery().Select(selectColumns...).Where(where).Prepared(true))
	if err != nil {
		return nil, err
	}

	var b Booking
	if err := scanBooking(r.db.QueryRow(ctx, q, args...), &b); err != nil {
		return nil, db.MapError(err)
	}
	return &b, nil
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Booking, int, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	where := []goqu.Expression{}
	if f.Status != nil {
		where = append(where, goqu.I("b.status").Eq(*f.Status))
	}
	if f.DestinationID != nil {
		where = append(where, goqu.I("b.destination_id").Eq(*f.DestinationID))
	}
	if f.GuideID != nil {
		where = append(where, goqu.I("b.guide_id").Eq(*f.GuideID))
	}
	if f.From != nil {
		where = append(where, goqu.I("b.start_date").Gte(*f.From))
	}
	if f.To != nil {
		where = append(where, goqu.I("b.start_date").Lte(*f.To))
	}
	if f.Search != nil {
		pattern := "%" + *f.Search + "%"
		where = append(where, goqu.Or(
			goqu.I("b.customer_name").ILike(pattern),
			goqu.L("b.customer_email::text").ILike(pattern),
			goqu.I("b.reference").ILike(pattern),
		))
	}

	base := baseQuery().Where(where...)

	countSQL, countArgs, err := db.Build(base.Select(goqu.COUNT(goqu.Star())).Prepared(true))
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	listSQL, args, err := db.Build(base.
		Select(selectColumns...).
		Order(goqu.I("b.created_at").Desc()).
		Limit(uint(f.Pagination.Limit)).
		Offset(uint(f.Pagination.Offset)).
		Prepared(true))
	if err != nil {
		return nil, 0, err
	}

	out, err := r.query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repository) Recent(ctx context.Context, limit int) ([]Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	q, args, err := db.Build(baseQuery().
		Select(selectColumns...).
		Order(goqu.I("b.created_at").Desc()).
		Limit(uint(limit)).
		Prepared(true))
	if err != nil {
		return nil, err
	}
	return r.query(ctx, q, args...)
}

func (r *Repository) query(ctx context.Context, q string, args ...any) ([]Booking, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	out := []Booking{}
	for rows.Next() {
		var b Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Update applies the patch and, when the status changes, records a
// notification in the same transaction. It returns the status the booking
// had before the update.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p Patch) (*Booking, string, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	var previous string
	var updated *Booking

	err := db.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		var ref string
		err := tx.QueryRow(ctx, `SELECT status, reference FROM bookings WHERE id = $1 FOR UPDATE`, id).Scan(&previous, &ref)
		if err != nil {
			return db.MapError(err)
		}

		rec := patchRecord(p)
		if len(rec) > 0 {
			rec["updated_at"] = goqu.L("NOW()")
			q, args, err := db.Build(db.SQL.Update("bookings").
				Set(rec).
				Where(goqu.C("id").Eq(id)).
				Prepared(true))
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, q, args...); err != nil {
				return fmt.Errorf("update booking: %w", db.MapError(err))
			}
		}

		if p.Status != nil && *p.Status != previous {
			n := &notifications.Notification{
				Type:      notifications.TypeBooking,
				Title:     "Booking " + *p.Status,
				Message:   fmt.Sprintf("Booking %s changed from %s to %s.", ref, previous, *p.Status),
				BookingID: &id,
			}
			if err := notifications.NewRepository(tx).Create(ctx, n); err != nil {
				return err
			}
		}

		txRepo := &Repository{db: tx, codes: r.codes}
		b, err := txRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return updated, previous, nil
}

func patchRecord(p Patch) goqu.Record {
	rec := goqu.Record{}
	if p.CustomerName != nil {
		rec["customer_name"] = *p.CustomerName
	}
	if p.CustomerEmail != nil {
		rec["customer_email"] = *p.CustomerEmail
	}
	if p.CustomerPhone != nil {
		rec["customer_phone"] = *p.CustomerPhone
	}
	if p.DestinationID != nil {
		rec["destination_id"] = *p.DestinationID
	}
	if p.GuideID != nil {
		rec["guide_id"] = *p.GuideID
	} else if p.ClearGuide {
		rec["guide_id"] = nil
	}
	if p.StartDate != nil {
		rec["start_date"] = *p.StartDate
	}
	if p.EndDate != nil {
		rec["end_date"] = *p.EndDate
	}
	if p.Travelers != nil {
		rec["travelers"] = *p.Travelers
	}
	if p.Amount != nil {
		rec["amount"] = *p.Amount
	}
	if p.Status != nil {
		rec["status"] = *p.Status
	}
	if p.Notes != nil {
		rec["notes"] = *p.Notes
	}
	return rec
}

// Delete removes the booking's notifications and then the booking.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	return db.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM notifications WHERE booking_id = $1`, id); err != nil {
			return fmt.Errorf("delete booking notifications: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete booking: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return db.ErrNotFound
		}
		return nil
	})
}

// MarkCompleted closes confirmed bookings whose trip ended before the given day.
func (r *Repository) MarkCompleted(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	const q = `
		UPDATE bookings
		SET status = 'completed', updated_at = NOW()
		WHERE status = 'confirmed' AND end_date < $1`
	tag, err := r.db.Exec(ctx, q, before)
	if err != nil {
		return 0, fmt.Errorf("mark completed bookings: %w", err)
	}
	return tag.RowsAffected(), nil
}
