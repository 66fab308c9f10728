package database

import (
	"fmt"
	"log"

	"waiterfm/internal/config"
	"waiterfm/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SampleWaiters is the roster seeded into an empty database.
var SampleWaiters = []string{"Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace", "Henry"}

// Open connects to the database selected by driver. SQLite connections are
// limited to one so transactions never hit "database is locked".
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.LoginHistoryEntry{},
		&models.Competition{},
		&models.Participation{},
		&models.Waiter{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Backs the single-active-competition rule with the store itself.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_competitions_single_active ON competitions (is_active) WHERE is_active = true",
	).Error; err != nil {
		return fmt.Errorf("failed to create single active competition index: %w", err)
	}
	return nil
}

// Seed inserts the admin account and the sample waiter roster when missing.
func Seed(db *gorm.DB, cfg *config.Config) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := models.User{
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		FirstName:    "Admin",
		LastName:     "User",
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&admin)
	if res.Error != nil {
		return fmt.Errorf("failed to seed admin user: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Printf("Seeded admin user: %s", admin.Username)
	}

	waiters := make([]models.Waiter, 0, len(SampleWaiters))
	for _, name := range SampleWaiters {
		waiters = append(waiters, models.Waiter{Name: name})
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&waiters).Error; err != nil {
		return fmt.Errorf("failed to seed waiters: %w", err)
	}
	return nil
}
