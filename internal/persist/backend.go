package persist

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/OCAP2/persistentrotation/internal/config"
	"github.com/OCAP2/persistentrotation/internal/storage"
	"github.com/OCAP2/persistentrotation/internal/storage/file"
	"github.com/OCAP2/persistentrotation/internal/storage/memory"
	"github.com/OCAP2/persistentrotation/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/persistentrotation/internal/storage/sqlite"
)

// OpenBackend creates and initializes the slot backend named by cfg.Type.
func OpenBackend(cfg config.StorageConfig, log zerolog.Logger) (storage.Backend, error) {
	var (
		b   storage.Backend
		err error
	)
	switch cfg.Type {
	case "file", "":
		b = file.New(file.Config{Dir: cfg.File.Dir, Compress: cfg.File.Compress})
	case "memory":
		b = memory.New()
	case "sqlite":
		b, err = sqlitestorage.New(sqlitestorage.Config{Path: cfg.SQLite.Path})
	case "postgres":
		b, err = postgres.New(cfg.Postgres, cfg.SQLite.Path, log)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := b.Init(); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to init %s storage: %w", cfg.Type, err)
	}
	return b, nil
}
