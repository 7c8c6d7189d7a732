// Package sqlite implements the feature-store Repository for SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ChronoBoot/loan-score/internal/storage"
)

// Repo implements storage.Repository for SQLite.
//
// Notes vs Postgres:
//   - there is no COPY; rows go in as multi-row INSERTs sized to stay under
//     the bound-parameter limit, inside one transaction
//   - feature columns map to REAL/TEXT affinity
type Repo struct {
	db *sql.DB
}

// maxBindVars is a conservative bound on parameters per statement.
// modernc.org/sqlite allows more, but staying low keeps statements small.
const maxBindVars = 30000

func init() {
	storage.Register("sqlite", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

// ReplaceFeatures drops and recreates the feature table, then inserts every
// row inside a single transaction.
func (r *Repo) ReplaceFeatures(ctx context.Context, table string, cols []storage.ColumnDef, rows [][]any) (int64, error) {
	if len(cols) == 0 {
		return 0, fmt.Errorf("sqlite: no columns")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+sqlIdent(table)); err != nil {
		return 0, fmt.Errorf("sqlite: drop %s: %w", table, err)
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
			ddl.WriteString(" REAL")
		} else {
			ddl.WriteString(" TEXT")
		}
	}
	ddl.WriteString(")")
	if _, err := tx.ExecContext(ctx, ddl.String()); err != nil {
		return 0, fmt.Errorf("sqlite: create %s: %w", table, err)
	}

	batch := maxBindVars / len(cols)
	if batch < 1 {
		batch = 1
	}

	var inserted int64
	for start := 0; start < len(rows); start += batch {
		end := start + batch
		if end > len(rows) {
			end = len(rows)
		}
		n, err := insertBatch(ctx, tx, table, cols, rows[start:end])
		if err != nil {
			return inserted, err
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return inserted, err
	}
	return inserted, nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, table string, cols []storage.ColumnDef, rows [][]any) (int64, error) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(sqlIdent(table))
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(sqlIdent(c.Name))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(cols))
	rowPH := "(" + strings.TrimRight(strings.Repeat("?,", len(cols)), ",") + ")"
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(rowPH)
		args = append(args, row...)
	}

	res, err := tx.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("sqlite: insert into %s: %w", table, err)
	}
	return res.RowsAffected()
}

// SaveSchema appends one schema descriptor document.
func (r *Repo) SaveSchema(ctx context.Context, name string, doc []byte) error {
	const ddl = `CREATE TABLE IF NOT EXISTS schema_artifacts (
		name TEXT NOT NULL,
		written_at TEXT NOT NULL,
		doc TEXT NOT NULL
	)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("sqlite: create schema_artifacts: %w", err)
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO schema_artifacts (name, written_at, doc) VALUES (?, ?, ?)",
		name, time.Now().UTC().Format(time.RFC3339Nano), string(doc),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save schema: %w", err)
	}
	return nil
}

// sqlIdent double-quotes an identifier. Feature column names carry slashes,
// colons and spaces straight from the source category values.
func sqlIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
