package main

import (
	"log"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/model"
	"ai-chat-be/pkg/database"

	"github.com/fatih/color"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	var (
		db  *gorm.DB
		err error
	)
	if cfg.Database.Driver == "postgres" {
		db, err = database.NewGormDBFromDSN(cfg.Database.Connection)
	} else {
		db, err = database.NewSqliteDB(cfg.Database.Path)
	}
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Starting GORM migration (%s)...", cfg.Database.Driver)

	// Extensions are a postgres-only concern; sqlite generates UUIDs in Go.
	if cfg.Database.Driver == "postgres" {
		setupSQL := []string{
			`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
			`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		}
		for _, sql := range setupSQL {
			if err := db.Exec(sql).Error; err != nil {
				log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
			}
		}
	}

	models := []interface{}{
		&model.User{},
		&model.EmailVerificationToken{},
		&model.UserSession{},
		&model.ChatSession{},
		&model.Message{},
		&model.ReportSchedule{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		color.Red("Migration failed: %v", err)
		log.Fatal(err)
	}

	// Legacy databases without a tracking table get stamped at head, not replayed.
	if err := database.StampSchemaHead(db); err != nil {
		color.Red("Stamping schema head failed: %v", err)
		log.Fatal(err)
	}

	color.Green("✅ Migration complete: %d tables at head %s", len(models), database.SchemaHead)
}
