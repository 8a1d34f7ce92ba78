package destinations

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"voyago/internal/db"
	"voyago/internal/domain/reviews"
)

type Store interface {
	Create(ctx context.Context, d *Destination) error
	GetByID(ctx context.Context, id uuid.UUID) (*Destination, error)
	GetBySlug(ctx context.Context, slug string) (*Destination, error)
	List(ctx context.Context, f Filter) ([]Destination, int, error)
	Featured(ctx context.Context, limit int) ([]Destination, error)
	Update(ctx context.Context, id uuid.UUID, p Patch) (*Destination, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetImage(ctx context.Context, id uuid.UUID, url string) error
	Names(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type Repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Store {
	return &Repository{db: conn}
}

var columns = []interface{}{
	"id", "name", "slug", "country", "description", "image_url",
	"price", "duration_days", "rating", "featured", "created_at", "updated_at",
}

func scan(row pgx.Row, d *Destination) error {
	return row.Scan(
		&d.ID, &d.Name, &d.Slug, &d.Country, &d.Description, &d.ImageURL,
		&d.Price, &d.DurationDays, &d.Rating, &d.Featured, &d.CreatedAt, &d.UpdatedAt,
	)
}

func (r *Repository) Create(ctx context.Context, d *Destination) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	const q = `
		INSERT INTO destinations (name, slug, country, description, image_url, price, duration_days, rating, featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, q,
		d.Name, d.Slug, d.Country, d.Description, d.ImageURL,
		d.Price, d.DurationDays, d.Rating, d.Featured,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create destination: %w", db.MapError(err))
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Destination, error) {
	return r.getOne(ctx, goqu.C("id").Eq(id))
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Destination, error) {
	return r.getOne(ctx, goqu.C("slug").Eq(slug))
}

func (r *Repository) getOne(ctx context.Context, where goqu.Expression) (*Destination, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	q, args, err := db.Build(db.SQL.From("destinations").Select(columns...).Where(where).Prepared(true))
	if err != nil {
		return nil, err
	}

	var d Destination
	if err := scan(r.db.QueryRow(ctx, q, args...), &d); err != nil {
		return nil, db.MapError(err)
	}
	return &d, nil
}

func order(sort string) []exp.OrderedExpression {
	switch sort {
	case SortName:
		return []exp.OrderedExpression{goqu.C("name").Asc()}
	case SortPrice:
		return []exp.OrderedExpression{goqu.C("price").Asc(), goqu.C("name").Asc()}
	case SortPriceDesc:
		return []exp.OrderedExpression{goqu.C("price").Desc(), goqu.C("name").Asc()}
	case SortRating:
		return []exp.OrderedExpression{goqu.C("rating").Desc(), goqu.C("name").Asc()}
	default:
		return []exp.OrderedExpression{goqu.C("created_at").Desc()}
	}
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Destination, int, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	where := []goqu.Expression{}
	if f.Search != nil {
		pattern := "%" + *f.Search + "%"
		where = append(where, goqu.Or(
			goqu.C("name").ILike(pattern),
			goqu.C("country").ILike(pattern),
			goqu.C("description").ILike(pattern),
		))
	}
	if f.Country != nil {
		where = append(where, goqu.C("country").ILike(*f.Country))
	}
	if f.Featured != nil {
		where = append(where, goqu.C("featured").Eq(*f.Featured))
	}

	base := db.SQL.From("destinations").Where(where...)

	countSQL, countArgs, err := db.Build(base.Select(goqu.COUNT(goqu.Star())).Prepared(true))
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count destinations: %w", err)
	}

	listSQL, args, err := db.Build(base.
		Select(columns...).
		Order(order(f.Sort)...).
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

// Featured returns featured destinations, best rated first.
func (r *Repository) Featured(ctx context.Context, limit int) ([]Destination, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	q, args, err := db.Build(db.SQL.From("destinations").
		Select(columns...).
		Where(goqu.C("featured").IsTrue()).
		Order(goqu.C("rating").Desc(), goqu.C("name").Asc()).
		Limit(uint(limit)).
		Prepared(true))
	if err != nil {
		return nil, err
	}
	return r.query(ctx, q, args...)
}

func (r *Repository) query(ctx context.Context, q string, args ...any) ([]Destination, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query destinations: %w", err)
	}
	defer rows.Close()

	out := []Destination{}
	for rows.Next() {
		var d Destination
		if err := scan(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, p Patch) (*Destination, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	rec := goqu.Record{"updated_at": goqu.L("NOW()")}
	if p.Name != nil {
		rec["name"] = *p.Name
	}
	if p.Slug != nil {
		rec["slug"] = *p.Slug
	}
	if p.Country != nil {
		rec["country"] = *p.Country
	}
	if p.Description != nil {
		rec["description"] = *p.Description
	}
	if p.ImageURL != nil {
		rec["image_url"] = *p.ImageURL
	}
	if p.Price != nil {
		rec["price"] = *p.Price
	}
	if p.DurationDays != nil {
		rec["duration_days"] = *p.DurationDays
	}
	if p.Rating != nil {
		rec["rating"] = *p.Rating
	}
	if p.Featured != nil {
		rec["featured"] = *p.Featured
	}

	q, args, err := db.Build(db.SQL.Update("destinations").
		Set(rec).
		Where(goqu.C("id").Eq(id)).
		Returning(columns...).
		Prepared(true))
	if err != nil {
		return nil, err
	}

	var d Destination
	if err := scan(r.db.QueryRow(ctx, q, args...), &d); err != nil {
		return nil, db.MapError(err)
	}
	return &d, nil
}

// Delete refuses to remove a destination that bookings still point at. Its
// reviews go with it, so the guides they rated are re-scored.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	return db.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		var booked bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE destination_id = $1)`, id).Scan(&booked); err != nil {
			return fmt.Errorf("check destination bookings: %w", err)
		}
		if booked {
			return fmt.Errorf("%w: destination has bookings", db.ErrInUse)
		}

		guides, err := reviewedGuides(ctx, tx, id)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM destinations WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete destination: %w", db.MapError(err))
		}
		if tag.RowsAffected() == 0 {
			return db.ErrNotFound
		}
		return reviews.RecomputeGuideRatings(ctx, tx, guides)
	})
}

func reviewedGuides(ctx context.Context, tx pgx.Tx, destinationID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx,
		`SELECT DISTINCT guide_id FROM reviews WHERE destination_id = $1 AND guide_id IS NOT NULL`, destinationID)
	if err != nil {
		return nil, fmt.Errorf("reviewed guides: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (r *Repository) SetImage(ctx context.Context, id uuid.UUID, url string) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE destinations SET image_url = $1, updated_at = NOW() WHERE id = $2`, url, id)
	if err != nil {
		return fmt.Errorf("set destination image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// Names maps ids to display names; ids without a row are absent.
func (r *Repository) Names(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id, name FROM destinations WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("destination names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}
