package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

// Up applies all pending migrations against the provided connection.
func Up(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
