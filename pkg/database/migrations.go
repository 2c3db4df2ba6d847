package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SchemaHead is the current migration head. Bump it whenever the set of
// AutoMigrated models changes shape.
const SchemaHead = "20260831_chat_v1"

type schemaMigration struct {
	Version   string    `gorm:"primaryKey;size:64"`
	AppliedAt time.Time `gorm:"not null"`
}

func (schemaMigration) TableName() string {
	return "schema_migrations"
}

// StampSchemaHead records the current head in schema_migrations without
// replaying anything. Databases created before the tracking table existed get
// stamped instead of re-migrated. Safe to call on every startup.
func StampSchemaHead(db *gorm.DB) error {
	if err := db.AutoMigrate(&schemaMigration{}); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var count int64
	if err := db.Model(&schemaMigration{}).Where("version = ?", SchemaHead).Count(&count).Error; err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	if count > 0 {
		return nil
	}

	row := schemaMigration{Version: SchemaHead, AppliedAt: time.Now().UTC()}
	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("stamp schema head: %w", err)
	}
	return nil
}
