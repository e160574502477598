package database

import (
	"log"

	"github.com/seemicrminc/tutorwidgets/internal/config"
	"github.com/seemicrminc/tutorwidgets/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto Migrate
	err = db.AutoMigrate(
		&models.User{},
		&models.LoginEvent{},
		&models.APIKey{},
		&models.Widget{},
		&models.WidgetField{},
		&models.Submission{},
		&models.ScheduleSlot{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	return db
}
