package models

import "time"

// Competition is a sales contest on a single item. At most one row has
// IsActive set at any time.
type Competition struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Item           string    `gorm:"type:varchar(255);not null" json:"item"`
	TargetQuantity int       `gorm:"not null" json:"target_quantity"`
	Prize          float64   `gorm:"type:decimal(10,2);not null" json:"prize"`
	Description    string    `gorm:"not null" json:"description"`
	IsActive       bool      `gorm:"not null" json:"is_active"`
	CreatedBy      uint      `gorm:"index" json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProgressPercent returns actual as a percentage of the target, capped at 100.
func (c *Competition) ProgressPercent(actual int) float64 {
	if c.TargetQuantity <= 0 {
		return 0
	}
	pct := float64(actual) / float64(c.TargetQuantity) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// TargetReached reports whether actual meets the competition target.
func (c *Competition) TargetReached(actual int) bool {
	return actual >= c.TargetQuantity
}

// Participation is a user's opt-in and progress for one competition.
type Participation struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CompetitionID   uint      `gorm:"uniqueIndex:idx_participation_pair;not null" json:"competition_id"`
	UserID          uint      `gorm:"uniqueIndex:idx_participation_pair;not null" json:"user_id"`
	IsParticipating bool      `gorm:"not null" json:"is_participating"`
	ActualQuantity  int       `gorm:"not null;default:0" json:"actual_quantity"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Participation) TableName() string {
	return "competition_participation"
}

// LeaderboardEntry is one ranked participant of a competition.
type LeaderboardEntry struct {
	Rank           int       `gorm:"-" json:"rank"`
	UserID         uint      `json:"user_id"`
	Username       string    `json:"username"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	RestaurantID   string    `json:"restaurant_id"`
	ActualQuantity int       `json:"actual_quantity"`
	UpdatedAt      time.Time `json:"updated_at"`
	TargetReached  bool      `gorm:"-" json:"target_reached"`
}
