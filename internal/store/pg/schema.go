package pg

import (
	"context"
	_ "embed"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"turtle_dash/pkg/db"
)

//go:embed schema.sql
var schemaSQL string

// Migrate накатывает DDL. Идемпотентно, зовётся на каждом старте.
func Migrate(ctx context.Context, m *db.PgTxManager) error {
	if m == nil {
		return nil
	}
	err := m.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, schemaSQL)
		return err
	})
	return errors.Wrap(err, "pg.Migrate")
}
