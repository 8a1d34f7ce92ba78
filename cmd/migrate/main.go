// Command migrate applies the embedded SQL migrations and, when ADMIN_EMAIL
// and ADMIN_PASSWORD are set, creates the first admin account.
package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"voyago/internal/config"
	"voyago/internal/db"
	"voyago/internal/domain/admins"
	"voyago/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger := logger.New(cfg.Env)
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := db.OpenMigrator(ctx, cfg.DB.Addr)
	if err != nil {
		logger.Fatal(err)
	}
	defer conn.Close()

	ran, err := db.Migrate(ctx, conn)
	if err != nil {
		logger.Fatalw("migration failed", "applied", ran, "error", err)
	}
	if len(ran) == 0 {
		logger.Info("schema is up to date")
	} else {
		logger.Infow("migrations applied", "names", ran)
	}

	if cfg.Bootstrap.AdminEmail == "" || cfg.Bootstrap.AdminPassword == "" {
		return
	}
	created, err := bootstrapAdmin(ctx, conn, cfg.Bootstrap)
	if err != nil {
		logger.Fatalw("admin bootstrap failed", "error", err)
	}
	if created {
		logger.Infow("admin account created", "email", cfg.Bootstrap.AdminEmail)
	}
}

// bootstrapAdmin inserts the configured admin unless the e-mail exists.
func bootstrapAdmin(ctx context.Context, conn *sqlx.DB, b config.BootstrapConfig) (bool, error) {
	var pw admins.Password
	if err := pw.Set(b.AdminPassword); err != nil {
		return false, err
	}

	res, err := conn.ExecContext(ctx, `
		INSERT INTO admins (name, email, password, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING`,
		b.AdminName, strings.ToLower(b.AdminEmail), pw.Hash(), admins.RoleAdmin)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
