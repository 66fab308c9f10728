package models

import "time"

// LoginHistoryEntry records one successful sign-in. Rows are append-only.
type LoginHistoryEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	LoginTime time.Time `gorm:"index;not null" json:"login_time"`
	IPAddress string    `gorm:"type:varchar(64)" json:"ip_address"`
	UserAgent string    `json:"user_agent"`
}

func (LoginHistoryEntry) TableName() string {
	return "user_login_history"
}
