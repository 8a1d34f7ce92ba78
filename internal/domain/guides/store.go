package guides

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"voyago/internal/db"
)

type Store interface {
	Create(ctx context.Context, g *Guide) error
	GetByID(ctx context.Context, id uuid.UUID) (*Guide, error)
	List(ctx context.Context, f Filter) ([]Guide, int, error)
	Update(ctx context.Context, id uuid.UUID, p Patch) (*Guide, error)
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

// assignments aggregates the destination ids into one array column.
var assignments = goqu.L(`COALESCE(
	(SELECT array_agg(gd.destination_id ORDER BY gd.destination_id)
	 FROM guide_destinations gd WHERE gd.guide_id = g.id),
	'{}'::uuid[])`)

var columns = []interface{}{
	goqu.I("g.id"), goqu.I("g.name"), goqu.I("g.email"), goqu.I("g.phone"),
	goqu.I("g.bio"), goqu.I("g.languages"), goqu.I("g.specialties"),
	goqu.I("g.experience_years"), goqu.I("g.image_url"), goqu.I("g.rating"),
	goqu.I("g.available"), assignments, goqu.I("g.created_at"), goqu.I("g.updated_at"),
}

func scan(row pgx.Row, g *Guide) error {
	return row.Scan(
		&g.ID, &g.Name, &g.Email, &g.Phone,
		&g.Bio, &g.Languages, &g.Specialties,
		&g.ExperienceYears, &g.ImageURL, &g.Rating,
		&g.Available, &g.DestinationIDs, &g.CreatedAt, &g.UpdatedAt,
	)
}

func from() *goqu.SelectDataset {
	return db.SQL.From(goqu.T("guides").As("g"))
}

// Create inserts the guide together with its destination assignments.
func (r *Repository) Create(ctx context.Context, g *Guide) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	if g.Languages == nil {
		g.Languages = []string{}
	}
	if g.Specialties == nil {
		g.Specialties = []string{}
	}

	return db.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		const q = `
			INSERT INTO guides (name, email, phone, bio, languages, specialties, experience_years, image_url, rating, available)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, created_at, updated_at`

		err := tx.QueryRow(ctx, q,
			g.Name, g.Email, g.Phone, g.Bio, g.Languages, g.Specialties,
			g.ExperienceYears, g.ImageURL, g.Rating, g.Available,
		).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create guide: %w", db.MapError(err))
		}

		if err := assign(ctx, tx, g.ID, g.DestinationIDs); err != nil {
			return err
		}
		if g.DestinationIDs == nil {
			g.DestinationIDs = []uuid.UUID{}
		}
		return nil
	})
}

// assign replaces every assignment of guideID with destIDs.
func assign(ctx context.Context, tx pgx.Tx, guideID uuid.UUID, destIDs []uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM guide_destinations WHERE guide_id = $1`, guideID); err != nil {
		return fmt.Errorf("clear guide destinations: %w", err)
	}
	if len(destIDs) == 0 {
		return nil
	}

	const q = `
		INSERT INTO guide_destinations (guide_id, destination_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING`
	if _, err := tx.Exec(ctx, q, guideID, destIDs); err != nil {
		return fmt.Errorf("assign guide destinations: %w", db.MapError(err))
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Guide, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	q, args, err := db.Build(from().Select(columns...).Where(goqu.I("g.id").Eq(id)).Prepared(true))
	if err != nil {
		return nil, err
	}

	var g Guide
	if err := scan(r.db.QueryRow(ctx, q, args...), &g); err != nil {
		return nil, db.MapError(err)
	}
	return &g, nil
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Guide, int, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	where := []goqu.Expression{}
	if f.Search != nil {
		pattern := "%" + *f.Search + "%"
		where = append(where, goqu.Or(
			goqu.I("g.name").ILike(pattern),
			goqu.I("g.bio").ILike(pattern),
		))
	}
	if f.Available != nil {
		where = append(where, goqu.I("g.available").Eq(*f.Available))
	}
	if f.Language != nil {
		where = append(where, goqu.L("? ILIKE ANY(g.languages)", *f.Language))
	}
	if f.DestinationID != nil {
		where = append(where, goqu.L(
			"EXISTS (SELECT 1 FROM guide_destinations gd WHERE gd.guide_id = g.id AND gd.destination_id = ?)",
			*f.DestinationID,
		))
	}

	base := from().Where(where...)

	countSQL, countArgs, err := db.Build(base.Select(goqu.COUNT(goqu.Star())).Prepared(true))
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count guides: %w", err)
	}

	listSQL, args, err := db.Build(base.
		Select(columns...).
		Order(goqu.I("g.rating").Desc(), goqu.I("g.name").Asc()).
		Limit(uint(f.Pagination.Limit)).
		Offset(uint(f.Pagination.Offset)).
		Prepared(true))
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list guides: %w", err)
	}
	defer rows.Close()

	out := []Guide{}
	for rows.Next() {
		var g Guide
		if err := scan(rows, &g); err != nil {
			return nil, 0, err
		}
		out = append(out, g)
	}
	return out, total, rows.Err()
}

// Update changes the guide row and, when p.DestinationIDs is set, its
// assignments, in one transaction.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p Patch) (*Guide, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	var out *Guide
	err := db.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		q, args, err := updateQuery(id, p)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("update guide: %w", db.MapError(err))
		}
		if tag.RowsAffected() == 0 {
			return db.ErrNotFound
		}

		if p.DestinationIDs != nil {
			if err := assign(ctx, tx, id, *p.DestinationIDs); err != nil {
				return err
			}
		}

		g, err := (&Repository{db: tx}).GetByID(ctx, id)
		if err != nil {
			return err
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// updateQuery renders the column changes of p as one UPDATE statement.
func updateQuery(id uuid.UUID, p Patch) (string, []any, error) {
	rec := goqu.Record{"updated_at": goqu.L("NOW()")}
	if p.Name != nil {
		rec["name"] = *p.Name
	}
	if p.Email != nil {
		rec["email"] = *p.Email
	}
	if p.Phone != nil {
		rec["phone"] = *p.Phone
	}
	if p.Bio != nil {
		rec["bio"] = *p.Bio
	}
	// goqu expands a bare slice into a tuple; bind the arrays as one value.
	if p.Languages != nil {
		rec["languages"] = pq.StringArray(p.Languages)
	}
	if p.Specialties != nil {
		rec["specialties"] = pq.StringArray(p.Specialties)
	}
	if p.ExperienceYears != nil {
		rec["experience_years"] = *p.ExperienceYears
	}
	if p.ImageURL != nil {
		rec["image_url"] = *p.ImageURL
	}
	if p.Rating != nil {
		rec["rating"] = *p.Rating
	}
	if p.Available != nil {
		rec["available"] = *p.Available
	}

	return db.Build(db.SQL.Update("guides").
		Set(rec).
		Where(goqu.C("id").Eq(id)).
		Prepared(true))
}

// Delete detaches the guide from bookings and reviews, removes its
// assignments and then the guide.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	return db.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE bookings SET guide_id = NULL, updated_at = NOW() WHERE guide_id = $1`, id); err != nil {
			return fmt.Errorf("unassign guide bookings: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE reviews SET guide_id = NULL WHERE guide_id = $1`, id); err != nil {
			return fmt.Errorf("unassign guide reviews: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM guide_destinations WHERE guide_id = $1`, id); err != nil {
			return fmt.Errorf("delete guide destinations: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM guides WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete guide: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return db.ErrNotFound
		}
		return nil
	})
}

func (r *Repository) SetImage(ctx context.Context, id uuid.UUID, url string) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE guides SET image_url = $1, updated_at = NOW() WHERE id = $2`, url, id)
	if err != nil {
		return fmt.Errorf("set guide image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *Repository) Names(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id, name FROM guides WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("guide names: %w", err)
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
