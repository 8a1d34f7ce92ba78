package pushtokens

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"voyago/internal/db"
)

type Store interface {
	Upsert(ctx context.Context, adminID uuid.UUID, token string, deviceInfo json.RawMessage) error
	Remove(ctx context.Context, adminID uuid.UUID, token string) error
	RemoveTokens(ctx context.Context, tokens []string) error
	AllTokens(ctx context.Context) ([]string, error)
	PruneStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type Repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Store {
	return &Repository{db: conn}
}

// Upsert stores the device token and refreshes last_updated.
func (r *Repository) Upsert(ctx context.Context, adminID uuid.UUID, token string, deviceInfo json.RawMessage) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	if len(deviceInfo) == 0 {
		deviceInfo = nil
	}

	const q = `
		INSERT INTO admin_push_tokens (admin_id, expo_push_token, device_info, last_updated)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (admin_id, expo_push_token)
		DO UPDATE SET device_info = EXCLUDED.device_info, last_updated = NOW()`

	if _, err := r.db.Exec(ctx, q, adminID, token, deviceInfo); err != nil {
		return fmt.Errorf("upsert push token: %w", db.MapError(err))
	}
	return nil
}

func (r *Repository) Remove(ctx context.Context, adminID uuid.UUID, token string) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM admin_push_tokens WHERE admin_id = $1 AND expo_push_token = $2`, adminID, token)
	if err != nil {
		return fmt.Errorf("remove push token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// RemoveTokens deletes every row whose token is in tokens, whoever owns it.
func (r *Repository) RemoveTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	if _, err := r.db.Exec(ctx, `DELETE FROM admin_push_tokens WHERE expo_push_token = ANY($1)`, tokens); err != nil {
		return fmt.Errorf("remove push tokens: %w", err)
	}
	return nil
}

// AllTokens returns the distinct tokens of every admin device.
func (r *Repository) AllTokens(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT DISTINCT expo_push_token FROM admin_push_tokens`)
	if err != nil {
		return nil, fmt.Errorf("list push tokens: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// PruneStale deletes tokens not refreshed within olderThan.
func (r *Repository) PruneStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	interval := fmt.Sprintf("%d seconds", int64(olderThan.Seconds()))
	tag, err := r.db.Exec(ctx, `DELETE FROM admin_push_tokens WHERE last_updated < NOW() - $1::interval`, interval)
	if err != nil {
		return 0, fmt.Errorf("prune push tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
