package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"voyago/internal/db"
	"voyago/internal/domain/admins"
	"voyago/internal/domain/bookings"
	"voyago/internal/domain/contacts"
	"voyago/internal/domain/dashboard"
	"voyago/internal/domain/destinations"
	"voyago/internal/domain/guides"
	"voyago/internal/domain/notifications"
	"voyago/internal/domain/pushtokens"
	"voyago/internal/domain/reviews"
)

type Container struct {
	pool          *pgxpool.Pool
	refs          *bookings.ReferenceCoder
	Admins        admins.Store
	Destinations  destinations.Store
	Guides        guides.Store
	Bookings      bookings.Store
	Reviews       reviews.Store
	Notifications notifications.Store
	Contacts      contacts.Store
	PushTokens    pushtokens.Store
	Dashboard     dashboard.Store
}

func NewContainer(pool *pgxpool.Pool, refs *bookings.ReferenceCoder) *Container {
	c := newContainer(pool, refs)
	c.pool = pool
	return c
}

func newContainer(conn db.DBTX, refs *bookings.ReferenceCoder) *Container {
	return &Container{
		refs:          refs,
		Admins:        admins.NewRepository(conn),
		Destinations:  destinations.NewRepository(conn),
		Guides:        guides.NewRepository(conn),
		Bookings:      bookings.NewRepository(conn, refs),
		Reviews:       reviews.NewRepository(conn),
		Notifications: notifications.NewRepository(conn),
		Contacts:      contacts.NewRepository(conn),
		PushTokens:    pushtokens.NewRepository(conn),
		Dashboard:     dashboard.NewRepository(conn),
	}
}

// WithTx runs fn with a container whose stores share one transaction.
func (c *Container) WithTx(ctx context.Context, fn func(tx *Container) error) error {
	if c.pool == nil {
		return fmt.Errorf("storage container has no pool")
	}

	return db.WithTx(c.pool, ctx, func(tx pgx.Tx) error {
		return fn(newContainer(tx, c.refs))
	})
}
