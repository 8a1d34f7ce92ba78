package admins

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"voyago/internal/db"
)

type Store interface {
	Create(ctx context.Context, a *Admin) error
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Admin, error)
	TouchLogin(ctx context.Context, id uuid.UUID) error
	IDs(ctx context.Context) ([]uuid.UUID, error)
}

type Repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Store {
	return &Repository{db: conn}
}

func (r *Repository) Create(ctx context.Context, a *Admin) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	if a.Role == "" {
		a.Role = RoleStaff
	}

	const q = `
		INSERT INTO admins (name, email, password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, q, a.Name, a.Email, a.Password.hash, a.Role).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create admin: %w", db.MapError(err))
	}
	return nil
}

const selectAdmin = `
	SELECT id, name, email, password, role, last_login_at, created_at, updated_at
	FROM admins`

func (r *Repository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	return r.getOne(ctx, selectAdmin+` WHERE email = $1`, email)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Admin, error) {
	return r.getOne(ctx, selectAdmin+` WHERE id = $1`, id)
}

func (r *Repository) getOne(ctx context.Context, q string, arg any) (*Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	var a Admin
	err := r.db.QueryRow(ctx, q, arg).Scan(
		&a.ID, &a.Name, &a.Email, &a.Password.hash, &a.Role, &a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &a, nil
}

func (r *Repository) TouchLogin(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	if _, err := r.db.Exec(ctx, `UPDATE admins SET last_login_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("touch admin login: %w", err)
	}
	return nil
}

// IDs lists every admin account; push fan-out targets all of them.
func (r *Repository) IDs(ctx context.Context) ([]uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id FROM admins ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("admin ids: %w", err)
	}
	defer rows.Close()

	out := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
