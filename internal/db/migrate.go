package db

import (
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"
	"gorm.io/gorm"

	"github.com/sirdesai22/hackathon-tasks/internal/models"
)

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Hackathon{},
		&models.Enrollment{},
		&models.Task{},
		&models.Assignment{},
		&models.Submission{},
		&models.AuditLog{},
		&models.Outbox{},
		&models.DLQ{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info.Println("✅ database migrated successfully")
	return nil
}
