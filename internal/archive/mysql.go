// internal/archive/mysql.go
package archive

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/tamzrod/inverter-mqtt/internal/telemetry"
)

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS inverter_metrics (
	id        BIGINT AUTO_INCREMENT PRIMARY KEY,
	inverter  VARCHAR(64)  NOT NULL,
	metric    VARCHAR(128) NOT NULL,
	value     DOUBLE       NOT NULL,
	unit      VARCHAR(16)  NOT NULL DEFAULT '',
	taken_at  TIMESTAMP(3) NOT NULL,
	INDEX inverter_metrics_taken_at_idx (inverter, metric, taken_at)
)`

type mysqlBackend struct {
	db *sql.DB
}

func newMySQLBackend(dsn string) (*mysqlBackend, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: mysql open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: mysql ping: %w", err)
	}
	if _, err := db.Exec(mysqlSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: mysql schema: %w", err)
	}
	return &mysqlBackend{db: db}, nil
}

func (b *mysqlBackend) Store(ctx context.Context, batch telemetry.Batch) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO inverter_metrics (inverter, metric, value, unit, taken_at)
		 VALUES (?, ?, ?, ?, ?)`)
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

func (b *mysqlBackend) Close() error { return b.db.Close() }
