package models

import "time"

// Waiter is a name on the restaurant's waiter roster.
type Waiter struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;type:varchar(100);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
