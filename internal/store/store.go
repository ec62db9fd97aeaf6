package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no config exists for the id.
var ErrNotFound = errors.New("app config not found")

// Store persists app configurations, one record per managed app. The
// supervisor writes through it on apply/delete and on schedule-stamp
// updates; how storage is implemented is the store's business.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	All(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Config selects and parameterizes a store backend.
type Config struct {
	Type string `toml:"type" mapstructure:"type"` // "sqlite", "postgres", "memory"
	// Path is the SQLite database file (":memory:" allowed).
	Path string `toml:"path,omitempty" mapstructure:"path"`
	// DSN is the PostgreSQL connection string.
	DSN string `toml:"dsn,omitempty" mapstructure:"dsn"`
}
