package config

import (
	"fmt"

	"github.com/sanjuan-tahitic/api-go/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the Postgres pool and migrates the schema.
func InitDB(cfg *Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}
	if cfg.IsProduction() {
		gormCfg.Logger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table. Parents are listed before children.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Place{},
		&models.GalleryPhoto{},
		&models.Rating{},
		&models.Experience{},
		&models.ExperienceView{},
		&models.Admin{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
