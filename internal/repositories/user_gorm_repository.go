package repositories

import (
	"fmt"

	"waiterfm/internal/models"

	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	return nil
}

// GetByID retrieves a user by primary key.
func (r *GORMUserRepository) GetByID(id uint) (*models.User, error) {
	return r.first("id = ?", id)
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(username string) (*models.User, error) {
	return r.first("username = ?", username)
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	return r.first("email = ?", email)
}

// GetByLogin matches either the username or the email.
func (r *GORMUserRepository) GetByLogin(usernameOrEmail string) (*models.User, error) {
	return r.first("username = ? OR email = ?", usernameOrEmail, usernameOrEmail)
}

// GetByProviderID retrieves a user linked to a federated identity.
func (r *GORMUserRepository) GetByProviderID(providerID string) (*models.User, error) {
	return r.first("provider_id = ?", providerID)
}

func (r *GORMUserRepository) FindConflict(username, email string, excludeID uint) (*models.User, error) {
	return r.first("(username = ? OR email = ?) AND id <> ?", username, email, excludeID)
}

func (r *GORMUserRepository) first(query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.Where(query, args...).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to get user: %w", translate(err))
	}
	return &user, nil
}

// Update saves all fields of an existing user.
func (r *GORMUserRepository) Update(user *models.User) error {
	res := r.db.Save(user)
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %d not found for update: %w", user.ID, ErrRecordNotFound)
	}
	return nil
}

// LinkProvider attaches a federated identity and avatar to an existing user.
func (r *GORMUserRepository) LinkProvider(userID uint, providerID, profilePicture string) error {
	res := r.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"provider_id":     providerID,
		"profile_picture": profilePicture,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to link provider for user %d: %w", userID, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %d not found: %w", userID, ErrRecordNotFound)
	}
	return nil
}

func (r *GORMUserRepository) RecordLogin(entry *models.LoginHistoryEntry) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", entry.UserID).Updates(map[string]interface{}{
			"login_count": gorm.Expr("login_count + ?", 1),
			"last_login":  entry.LoginTime,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to update login stats: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user with ID %d not found: %w", entry.UserID, ErrRecordNotFound)
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to append login history: %w", err)
		}
		return nil
	})
}

// ListWithLoginTotals returns every user, newest first, with the number of
// recorded history rows.
func (r *GORMUserRepository) ListWithLoginTotals() ([]models.UserSummary, error) {
	var users []models.User
	if err := r.db.Order("created_at DESC").Order("id DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	type total struct {
		UserID uint
		Total  int64
	}
	var totals []total
	if err := r.db.Model(&models.LoginHistoryEntry{}).
		Select("user_id, COUNT(*) AS total").
		Group("user_id").
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("failed to count logins: %w", err)
	}
	byUser := make(map[uint]int64, len(totals))
	for _, t := range totals {
		byUser[t.UserID] = t.Total
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, models.UserSummary{
			PublicUser:  users[i].Public(),
			TotalLogins: byUser[users[i].ID],
		})
	}
	return summaries, nil
}

// LoginHistory returns the most recent entries for a user, newest first.
func (r *GORMUserRepository) LoginHistory(userID uint, limit int) ([]models.LoginHistoryEntry, error) {
	history := make([]models.LoginHistoryEntry, 0)
	if err := r.db.Where("user_id = ?", userID).
		Order("login_time DESC").Order("id DESC").
		Limit(limit).
		Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to get login history for user %d: %w", userID, err)
	}
	return history, nil
}
