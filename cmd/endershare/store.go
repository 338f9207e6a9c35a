package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/endershare/internal/config"
	"github.com/rpggio/endershare/internal/filestore"
	"github.com/rpggio/endershare/internal/repository"
	"github.com/rpggio/endershare/internal/sqlite"
)

// openStore opens the configured backend. The returned close func is never nil.
func openStore(cfg config.StoreConfig, logger *slog.Logger) (repository.Store, func() error, error) {
	switch cfg.Driver {
	case "yaml":
		store, err := filestore.New(cfg.Dir, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	case "sqlite":
		if err := ensureDBDir(cfg.Path); err != nil {
			return nil, nil, fmt.Errorf("failed to prepare database path: %w", err)
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, nil, err
		}
		return sqlite.NewStore(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
