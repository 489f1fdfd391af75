// Package sqlitestorage implements the storage.Backend interface using a
// SQLite database file. It wraps the GORM backend via composition.
package sqlitestorage

import (
	"fmt"

	"github.com/OCAP2/persistentrotation/internal/database"
	gormstorage "github.com/OCAP2/persistentrotation/internal/storage/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path string // empty keeps the database in memory
}

// Backend wraps the GORM backend for SQLite.
type Backend struct {
	*gormstorage.Backend
	cfg Config
}

// New opens the SQLite database.
func New(cfg Config) (*Backend, error) {
	db, err := database.OpenSqlite(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(db),
		cfg:     cfg,
	}, nil
}

// Describe reports the database path.
func (b *Backend) Describe() string {
	if b.cfg.Path == "" {
		return "sqlite:memory"
	}
	return "sqlite:" + b.cfg.Path
}
