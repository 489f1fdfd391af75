// Package postgres implements the storage.Backend interface on PostgreSQL.
// It wraps the GORM backend and falls back to a local SQLite file when the
// server cannot be reached.
package postgres

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/OCAP2/persistentrotation/internal/config"
	"github.com/OCAP2/persistentrotation/internal/database"
	gormstorage "github.com/OCAP2/persistentrotation/internal/storage/gorm"
)

// Backend wraps the GORM backend for postgres.
type Backend struct {
	*gormstorage.Backend
	manager *database.Manager
}

// New connects to postgres. fallbackPath names the SQLite file used when the
// connection fails.
func New(cfg config.DBConfig, fallbackPath string, log zerolog.Logger) (*Backend, error) {
	m := database.NewManager(log, fallbackPath)
	if err := m.ConnectPostgres(cfg); err != nil {
		return nil, fmt.Errorf("failed to connect slot database: %w", err)
	}
	return &Backend{
		Backend: gormstorage.New(m.DB),
		manager: m,
	}, nil
}

// UsingFallback reports whether slots are going to the local SQLite file.
func (b *Backend) UsingFallback() bool {
	return b.manager.UsingFallback
}

// Describe reports which database is in use.
func (b *Backend) Describe() string {
	if b.manager.UsingFallback {
		return "postgres(fallback sqlite:" + b.manager.SqliteFilePath + ")"
	}
	return "postgres"
}
