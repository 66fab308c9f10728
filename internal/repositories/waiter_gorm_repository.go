package repositories

import (
	"fmt"

	"waiterfm/internal/models"

	"gorm.io/gorm"
)

// GORMWaiterRepository is a GORM implementation of WaiterRepository.
type GORMWaiterRepository struct {
	db *gorm.DB
}

// NewGORMWaiterRepository creates a new instance of GORMWaiterRepository.
func NewGORMWaiterRepository(db *gorm.DB) *GORMWaiterRepository {
	return &GORMWaiterRepository{
		db: db,
	}
}

// GetAll retrieves the roster ordered by name.
func (r *GORMWaiterRepository) GetAll() ([]models.Waiter, error) {
	waiters := make([]models.Waiter, 0)
	if err := r.db.Order("name ASC").Find(&waiters).Error; err != nil {
		return nil, fmt.Errorf("failed to get all waiters: %w", err)
	}
	return waiters, nil
}

// Create adds a waiter to the roster.
func (r *GORMWaiterRepository) Create(waiter *models.Waiter) error {
	if err := r.db.Create(waiter).Error; err != nil {
		return fmt.Errorf("failed to create waiter: %w", translate(err))
	}
	return nil
}
