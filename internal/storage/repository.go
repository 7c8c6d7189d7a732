// Package storage defines the optional feature-store layer: repositories
// that persist the assembled feature rows and the schema descriptor to a
// SQL backend. The CSV artifacts written by the pipeline remain the
// canonical outputs; a repository is wired only when a DSN is configured.
package storage

import (
	"context"
	"fmt"
	"sync"
)

// Config is the minimal configuration needed to create a repository.
type Config struct {
	Kind string
	DSN  string
}

// ColumnDef describes one feature column for DDL purposes. The feature set
// varies run to run (one-hot expansion is data-driven), so the feature
// table is recreated from this list on every persist.
type ColumnDef struct {
	Name    string
	Numeric bool
}

// Repository is a backend-agnostic store for pipeline artifacts.
//
// IMPORTANT: this interface is intentionally minimal. Each backend
// implements the semantics in its own idiomatic way (Postgres COPY, SQLite
// multi-row inserts under its parameter limit, etc).
type Repository interface {
	// Close releases backend resources. Call once at process shutdown.
	Close()

	// ReplaceFeatures drops and recreates the named feature table from
	// cols, then bulk-inserts rows. Row cells follow the pipeline value
	// conventions: nil (missing), float64 or string.
	ReplaceFeatures(ctx context.Context, table string, cols []ColumnDef, rows [][]any) (int64, error)

	// SaveSchema appends one schema descriptor document under a logical
	// name, with a server-side timestamp.
	SaveSchema(ctx context.Context, name string, doc []byte) error
}

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
// Call from an init() in the backend package. Registering the same kind
// twice panics; failing fast beats ambiguous backend selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing Kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
