package contacts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"voyago/internal/db"
	"voyago/internal/domain/notifications"
)

type Message struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	Create(ctx context.Context, m *Message) error
}

type Repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Store {
	return &Repository{db: conn}
}

// Create stores the message and a contact notification together.
func (r *Repository) Create(ctx context.Context, m *Message) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	return db.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		const q = `
			INSERT INTO contact_messages (name, email, subject, message)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`

		if err := tx.QueryRow(ctx, q, m.Name, m.Email, m.Subject, m.Message).Scan(&m.ID, &m.CreatedAt); err != nil {
			return fmt.Errorf("create contact message: %w", err)
		}

		n := &notifications.Notification{
			Type:    notifications.TypeContact,
			Title:   "Contact: " + truncate(m.Subject, 140),
			Message: fmt.Sprintf("%s <%s> wrote: %s", m.Name, m.Email, truncate(m.Message, 500)),
		}
		return notifications.NewRepository(tx).Create(ctx, n)
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
