// Package postgres implements the feature-store Repository for Postgres.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ChronoBoot/loan-score/internal/storage"
)

// Repo implements storage.Repository for Postgres. Bulk loading uses COPY,
// which is the reason to prefer this backend for full-size datasets.
type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	storage.Register("postgres", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

func (r *Repo) Close() { r.pool.Close() }

// ReplaceFeatures drops and recreates the feature table, then COPYs every
// row, all inside one transaction.
func (r *Repo) ReplaceFeatures(ctx context.Context, table string, cols []storage.ColumnDef, rows [][]any) (int64, error) {
	if len(cols) == 0 {
		return 0, fmt.Errorf("postgres: no columns")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+sqlIdent(table)); err != nil {
		return 0, fmt.Errorf("postgres: drop %s: %w", table, err)
	}

	var ddl strings.Builder
	ddl.WriteString("CREATE TABLE ")
	ddl.WriteString(sqlIdent(table))
	ddl.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			ddl.WriteString(", ")
		}
		ddl.WriteString(sqlIdent(c.Name))
		if c.Numeric {
			ddl.WriteString(" DOUBLE PRECISION")
		} else {
			ddl.WriteString(" TEXT")
		}
	}
	ddl.WriteString(")")
	if _, err := tx.Exec(ctx, ddl.String()); err != nil {
		return 0, fmt.Errorf("postgres: create %s: %w", table, err)
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	inserted, err := tx.CopyFrom(ctx, pgx.Identifier{table}, names, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("postgres: copy into %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return inserted, err
	}
	return inserted, nil
}

// SaveSchema appends one schema descriptor document.
func (r *Repo) SaveSchema(ctx context.Context, name string, doc []byte) error {
	const ddl = `CREATE TABLE IF NOT EXISTS schema_artifacts (
		name TEXT NOT NULL,
		written_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		doc JSONB NOT NULL
	)`
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres: create schema_artifacts: %w", err)
	}
	if _, err := r.pool.Exec(ctx,
		"INSERT INTO schema_artifacts (name, doc) VALUES ($1, $2)",
		name, string(doc),
	); err != nil {
		return fmt.Errorf("postgres: save schema: %w", err)
	}
	return nil
}

func sqlIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
