// Package mssql implements the feature-store Repository for SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/ChronoBoot/loan-score/internal/storage"
)

// Repo implements storage.Repository for SQL Server.
//
// SQL Server caps bound parameters at 2100 per statement, which with a
// feature table of several hundred columns means only a handful of rows per
// INSERT. Batches are sized accordingly.
type Repo struct {
	db *sql.DB
}

const maxBindVars = 2000

func init() {
	storage.Register("mssql", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
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

func (r *Repo) ReplaceFeatures(ctx context.Context, table string, cols []storage.ColumnDef, rows [][]any) (int64, error) {
	if len(cols) == 0 {
		return 0, fmt.Errorf("mssql: no columns")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	drop := fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s",
		strings.ReplaceAll(table, "'", "''"), sqlIdent(table))
	if _, err := tx.ExecContext(ctx, drop); err != nil {
		return 0, fmt.Errorf("mssql: drop %s: %w", table, err)
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
			ddl.WriteString(" FLOAT NULL")
		} else {
			ddl.WriteString(" NVARCHAR(MAX) NULL")
		}
	}
	ddl.WriteString(")")
	if _, err := tx.ExecContext(ctx, ddl.String()); err != nil {
		return 0, fmt.Errorf("mssql: create %s: %w", table, err)
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
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range cols {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "@p%d", p)
			p++
			args = append(args, row[j])
		}
		b.WriteString(")")
	}

	res, err := tx.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("mssql: insert into %s: %w", table, err)
	}
	return res.RowsAffected()
}

func (r *Repo) SaveSchema(ctx context.Context, name string, doc []byte) error {
	const ddl = `IF OBJECT_ID(N'schema_artifacts', N'U') IS NULL
	CREATE TABLE schema_artifacts (
		name NVARCHAR(256) NOT NULL,
		written_at DATETIMEOFFSET NOT NULL DEFAULT SYSDATETIMEOFFSET(),
		doc NVARCHAR(MAX) NOT NULL
	)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("mssql: create schema_artifacts: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO schema_artifacts (name, doc) VALUES (@p1, @p2)",
		name, string(doc),
	); err != nil {
		return fmt.Errorf("mssql: save schema: %w", err)
	}
	return nil
}

// sqlIdent brackets an identifier. Feature column names carry slashes,
// colons and spaces straight from the source category values.
func sqlIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
