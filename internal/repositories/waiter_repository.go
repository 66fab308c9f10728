package repositories

import (
	"waiterfm/internal/models"
)

// WaiterRepository defines the interface for waiter roster access.
type WaiterRepository interface {
	GetAll() ([]models.Waiter, error)
	Create(waiter *models.Waiter) error
}
