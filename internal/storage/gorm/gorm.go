// Package gormstorage implements storage.Backend on any gorm dialect. Slot
// documents are kept in a JSON column.
package gormstorage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/OCAP2/persistentrotation/internal/database"
	"github.com/OCAP2/persistentrotation/internal/model"
	"github.com/OCAP2/persistentrotation/internal/storage"
)

// Backend implements storage.Backend using GORM.
type Backend struct {
	db      *gorm.DB
	dbReady bool
}

// New creates a new GORM storage backend.
func New(db *gorm.DB) *Backend {
	return &Backend{db: db}
}

// DB exposes the connection for wrappers.
func (b *Backend) DB() *gorm.DB {
	return b.db
}

// Init migrates the slot schema.
func (b *Backend) Init() error {
	if b.db == nil {
		return errors.New("gorm backend has no database")
	}
	if err := database.Setup(b.db); err != nil {
		return err
	}
	b.dbReady = true
	return nil
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Describe reports the dialect in use.
func (b *Backend) Describe() string {
	if b.db == nil {
		return "gorm"
	}
	return "gorm:" + b.db.Dialector.Name()
}

// List returns slot names in ascending order.
func (b *Backend) List(ctx context.Context) ([]string, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	var names []string
	err := b.db.WithContext(ctx).
		Model(&model.RotationSlot{}).
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return names, nil
}

// Read returns the stored document.
func (b *Backend) Read(ctx context.Context, name string) ([]byte, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	var slot model.RotationSlot
	err := b.db.WithContext(ctx).Where("name = ?", name).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", storage.ErrSlotNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s: %w", name, err)
	}
	return []byte(slot.Payload), nil
}

// Write upserts the slot by name.
func (b *Backend) Write(ctx context.Context, name string, data []byte) error {
	if err := b.ready(); err != nil {
		return err
	}
	slot := model.RotationSlot{
		Name:    name,
		Payload: datatypes.JSON(data),
	}
	err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&slot).Error
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", name, err)
	}
	return nil
}

// Delete removes the named slot.
func (b *Backend) Delete(ctx context.Context, name string) error {
	if err := b.ready(); err != nil {
		return err
	}
	res := b.db.WithContext(ctx).Where("name = ?", name).Delete(&model.RotationSlot{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete slot %s: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", storage.ErrSlotNotFound, name)
	}
	return nil
}

func (b *Backend) ready() error {
	if !b.dbReady {
		return errors.New("gorm backend not initialized")
	}
	return nil
}
