package models

import "time"

const (
	RoleAdmin  = "admin"
	RoleWaiter = "waiter"
)

// User is an account of the staff app. PasswordHash is empty for accounts that
// only sign in through a federated identity provider.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Username       string     `gorm:"uniqueIndex;type:varchar(100);not null" json:"username"`
	Email          string     `gorm:"uniqueIndex;type:varchar(255);not null" json:"email"`
	PasswordHash   string     `gorm:"type:varchar(255)" json:"-"`
	ProviderID     *string    `gorm:"uniqueIndex;type:varchar(255)" json:"-"`
	FirstName      string     `gorm:"type:varchar(100)" json:"firstName"`
	LastName       string     `gorm:"type:varchar(100)" json:"lastName"`
	Role           string     `gorm:"type:varchar(16);not null;default:'waiter'" json:"role"`
	RestaurantID   string     `gorm:"type:varchar(100)" json:"restaurant_id"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
	LoginCount     int        `gorm:"not null;default:0" json:"loginCount"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	IsActive       bool       `gorm:"not null;default:true" json:"isActive"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// PublicUser is the view of a User returned over the API.
type PublicUser struct {
	ID             uint       `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Role           string     `json:"role"`
	RestaurantID   string     `json:"restaurant_id"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
	LoginCount     int        `json:"loginCount"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	IsActive       bool       `json:"isActive"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Public strips credentials from the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           u.Role,
		RestaurantID:   u.RestaurantID,
		ProfilePicture: u.ProfilePicture,
		LoginCount:     u.LoginCount,
		LastLogin:      u.LastLogin,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
	}
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSummary is a roster row for the admin user list.
type UserSummary struct {
	PublicUser
	TotalLogins int64 `json:"total_logins"`
}
