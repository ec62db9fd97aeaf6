package factory

import (
	"fmt"

	"github.com/quantkit/fleetwatch/internal/store"
	"github.com/quantkit/fleetwatch/internal/store/postgres"
	"github.com/quantkit/fleetwatch/internal/store/sqlite"
)

// New builds a config store from a store.Config.
func New(cfg store.Config) (store.Store, error) {
	switch cfg.Type {
	case "", "memory":
		return store.NewMemory(), nil
	case "sqlite":
		return sqlite.New(cfg.Path)
	case "postgres", "postgresql":
		return postgres.New(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}
