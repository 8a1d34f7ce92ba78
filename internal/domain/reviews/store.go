package reviews

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"voyago/internal/db"
	"voyago/internal/domain/notifications"
	"voyago/internal/stats"
)

type Store interface {
	Create(ctx context.Context, rv *Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)
	List(ctx context.Context, f Filter) ([]Review, int, error)
	Update(ctx context.Context, id uuid.UUID, p Patch) (*Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Community(ctx context.Context, limit int) ([]Review, *Summary, error)
	Stats(ctx context.Context) (*Stats, error)
}

type Repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Store {
	return &Repository{db: conn}
}

var columns = []interface{}{
	goqu.I("r.id"),
	goqu.I("r.destination_id"),
	goqu.L("COALESCE(d.name, 'Unknown')"),
	goqu.I("r.guide_id"),
	goqu.I("g.name"),
	goqu.I("r.author_name"),
	goqu.I("r.rating"),
	goqu.I("r.comment"),
	goqu.I("r.approved"),
	goqu.I("r.created_at"),
	goqu.I("r.updated_at"),
}

func baseQuery() *goqu.SelectDataset {
	return db.SQL.From(goqu.T("reviews").As("r")).
		LeftJoin(goqu.T("destinations").As("d"), goqu.On(goqu.I("d.id").Eq(goqu.I("r.destination_id")))).
		LeftJoin(goqu.T("guides").As("g"), goqu.On(goqu.I("g.id").Eq(goqu.I("r.guide_id"))))
}

func scan(row pgx.Row, rv *Review) error {
	return row.Scan(
		&rv.ID, &rv.DestinationID, &rv.DestinationName, &rv.GuideID, &rv.GuideName,
		&rv.AuthorName, &rv.Rating, &rv.Comment, &rv.Approved, &rv.CreatedAt, &rv.UpdatedAt,
	)
}

// recomputeRatings sets the destination's (and guide's) rating to the average
// of its approved reviews, or 0 when it has none.
func recomputeRatings(ctx context.Context, tx pgx.Tx, destinationID uuid.UUID, guideID *uuid.UUID) error {
	const dq = `
		UPDATE destinations SET rating = COALESCE(
			(SELECT ROUND(AVG(rating)::numeric, 2) FROM reviews WHERE destination_id = $1 AND approved), 0),
			updated_at = NOW()
		WHERE id = $1`
	if _, err := tx.Exec(ctx, dq, destinationID); err != nil {
		return fmt.Errorf("recompute destination rating: %w", err)
	}

	if guideID == nil {
		return nil
	}
	return RecomputeGuideRatings(ctx, tx, []uuid.UUID{*guideID})
}

// RecomputeGuideRatings refreshes each guide's rating from its approved
// reviews. Callers that remove reviews in bulk run it on the same tx.
func RecomputeGuideRatings(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `
		UPDATE guides g SET rating = COALESCE(
			(SELECT ROUND(AVG(r.rating)::numeric, 2) FROM reviews r WHERE r.guide_id = g.id AND r.approved), 0),
			updated_at = NOW()
		WHERE g.id = ANY($1)`
	if _, err := tx.Exec(ctx, q, ids); err != nil {
		return fmt.Errorf("recompute guide rating: %w", err)
	}
	return nil
}

// Create stores the review, refreshes the affected ratings and queues a
// review notification for the moderators.
func (r *Repository) Create(ctx context.Context, rv *Review) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	return db.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		const q = `
			INSERT INTO reviews (destination_id, guide_id, author_name, rating, comment, approved)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at`

		err := tx.QueryRow(ctx, q,
			rv.DestinationID, rv.GuideID, rv.AuthorName, rv.Rating, rv.Comment, rv.Approved,
		).Scan(&rv.ID, &rv.CreatedAt, &rv.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create review: %w", db.MapError(err))
		}

		if err := recomputeRatings(ctx, tx, rv.DestinationID, rv.GuideID); err != nil {
			return err
		}

		n := &notifications.Notification{
			Type:    notifications.TypeReview,
			Title:   "New review",
			Message: fmt.Sprintf("%s left a %d-star review.", rv.AuthorName, rv.Rating),
		}
		return notifications.NewRepository(tx).Create(ctx, n)
	})
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Review, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	q, args, err := db.Build(baseQuery().Select(columns...).Where(goqu.I("r.id").Eq(id)).Prepared(true))
	if err != nil {
		return nil, err
	}

	var rv Review
	if err := scan(r.db.QueryRow(ctx, q, args...), &rv); err != nil {
		return nil, db.MapError(err)
	}
	return &rv, nil
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Review, int, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	where := []goqu.Expression{}
	if f.DestinationID != nil {
		where = append(where, goqu.I("r.destination_id").Eq(*f.DestinationID))
	}
	if f.GuideID != nil {
		where = append(where, goqu.I("r.guide_id").Eq(*f.GuideID))
	}
	if f.Approved != nil {
		where = append(where, goqu.I("r.approved").Eq(*f.Approved))
	}

	base := baseQuery().Where(where...)

	countSQL, countArgs, err := db.Build(base.Select(goqu.COUNT(goqu.Star())).Prepared(true))
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	listSQL, args, err := db.Build(base.
		Select(columns...).
		Order(goqu.I("r.created_at").Desc()).
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

func (r *Repository) query(ctx context.Context, q string, args ...any) ([]Review, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	out := []Review{}
	for rows.Next() {
		var rv Review
		if err := scan(rows, &rv); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, p Patch) (*Review, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	var out *Review
	err := db.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		rec := goqu.Record{"updated_at": goqu.L("NOW()")}
		if p.Rating != nil {
			rec["rating"] = *p.Rating
		}
		if p.Comment != nil {
			rec["comment"] = *p.Comment
		}
		if p.Approved != nil {
			rec["approved"] = *p.Approved
		}

		q, args, err := db.Build(db.SQL.Update("reviews").
			Set(rec).
			Where(goqu.C("id").Eq(id)).
			Returning("destination_id", "guide_id").
			Prepared(true))
		if err != nil {
			return err
		}

		var destID uuid.UUID
		var guideID *uuid.UUID
		if err := tx.QueryRow(ctx, q, args...).Scan(&destID, &guideID); err != nil {
			return db.MapError(err)
		}

		if err := recomputeRatings(ctx, tx, destID, guideID); err != nil {
			return err
		}

		rv, err := (&Repository{db: tx}).GetByID(ctx, id)
		if err != nil {
			return err
		}
		out = rv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	return db.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		var destID uuid.UUID
		var guideID *uuid.UUID
		err := tx.QueryRow(ctx, `DELETE FROM reviews WHERE id = $1 RETURNING destination_id, guide_id`, id).
			Scan(&destID, &guideID)
		if err != nil {
			return db.MapError(err)
		}
		return recomputeRatings(ctx, tx, destID, guideID)
	})
}

// Community returns the latest approved reviews and a summary over all of
// them.
func (r *Repository) Community(ctx context.Context, limit int) ([]Review, *Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	q, args, err := db.Build(baseQuery().
		Select(columns...).
		Where(goqu.I("r.approved").IsTrue()).
		Order(goqu.I("r.created_at").Desc()).
		Limit(uint(limit)).
		Prepared(true))
	if err != nil {
		return nil, nil, err
	}

	list, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, nil, err
	}

	perStar, total, err := r.starCounts(ctx, true)
	if err != nil {
		return nil, nil, err
	}
	dist, avg := stats.Distribution(perStar)

	return list, &Summary{Total: total, Average: avg, Distribution: dist}, nil
}

func (r *Repository) starCounts(ctx context.Context, approvedOnly bool) (map[int]int64, int64, error) {
	q := `SELECT rating, COUNT(*) FROM reviews`
	if approvedOnly {
		q += ` WHERE approved`
	}
	q += ` GROUP BY rating`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("review star counts: %w", err)
	}
	defer rows.Close()

	perStar := map[int]int64{}
	var total int64
	for rows.Next() {
		var star int
		var n int64
		if err := rows.Scan(&star, &n); err != nil {
			return nil, 0, err
		}
		perStar[star] = n
		total += n
	}
	return perStar, total, rows.Err()
}

func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	var s Stats
	const totals = `SELECT COUNT(*), COUNT(*) FILTER (WHERE approved) FROM reviews`
	if err := r.db.QueryRow(ctx, totals).Scan(&s.Total, &s.Approved); err != nil {
		return nil, fmt.Errorf("review totals: %w", err)
	}
	s.Pending = s.Total - s.Approved

	perStar, _, err := r.starCounts(ctx, true)
	if err != nil {
		return nil, err
	}
	s.Distribution, s.Average = stats.Distribution(perStar)
	return &s, nil
}
