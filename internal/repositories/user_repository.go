package repositories

import (
	"waiterfm/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByLogin(usernameOrEmail string) (*models.User, error)
	GetByProviderID(providerID string) (*models.User, error)
	// FindConflict returns a user other than excludeID holding username or email.
	FindConflict(username, email string, excludeID uint) (*models.User, error)
	Update(user *models.User) error
	LinkProvider(userID uint, providerID, profilePicture string) error
	// RecordLogin bumps the login counter and appends a history entry atomically.
	RecordLogin(entry *models.LoginHistoryEntry) error
	ListWithLoginTotals() ([]models.UserSummary, error)
	LoginHistory(userID uint, limit int) ([]models.LoginHistoryEntry, error)
}
