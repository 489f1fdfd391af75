package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// SchemaVersion is written to StoreInfo when a database is first set up.
const SchemaVersion = 1

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&StoreInfo{},
	&RotationSlot{},
}

// StoreInfo describes the slot database itself. One row per database.
type StoreInfo struct {
	gorm.Model
	SchemaVersion int    `json:"schemaVersion"`
	Description   string `json:"description" gorm:"size:255"`
}

func (*StoreInfo) TableName() string {
	return "store_infos"
}

// RotationSlot is one saved snapshot document.
type RotationSlot struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Name      string         `json:"name" gorm:"size:64;not null;uniqueIndex"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (*RotationSlot) TableName() string {
	return "rotation_slots"
}
