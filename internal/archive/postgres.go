// internal/archive/postgres.go
package archive

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/tamzrod/inverter-mqtt/internal/telemetry"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS inverter_metrics (
	id        BIGSERIAL PRIMARY KEY,
	inverter  TEXT        NOT NULL,
	metric    TEXT        NOT NULL,
	value     DOUBLE PRECISION NOT NULL,
	unit      TEXT        NOT NULL DEFAULT '',
	taken_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS inverter_metrics_taken_at_idx
	ON inverter_metrics (inverter, metric, taken_at);
`

type postgresBackend struct {
	db *sql.DB
}

func newPostgresBackend(dsn string) (*postgresBackend, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: postgres open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: postgres ping: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: postgres schema: %w", err)
	}
	return &postgresBackend{db: db}, nil
}

func (b *postgresBackend) Store(ctx context.Context, batch telemetry.Batch) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO inverter_metrics (inverter, metric, value, unit, taken_at)
		 VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range batch.Values {
		if _, err := stmt.ExecContext(ctx, batch.Inverter, v.Name, v.Value, v.Unit, v.At); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (b *postgresBackend) Close() error { return b.db.Close() }
