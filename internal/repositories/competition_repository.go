package repositories

import (
	"time"

	"waiterfm/internal/models"
)

// CompetitionRepository defines data access for competitions and participation.
// Every method reads or writes the store directly; nothing is cached.
type CompetitionRepository interface {
	// Activate deactivates any active competition and inserts c as the new
	// active one in a single transaction.
	Activate(c *models.Competition) error
	// DeactivateActive clears the active flag and reports how many rows changed.
	DeactivateActive() (int64, error)
	GetActive() (*models.Competition, error)
	GetAll() ([]models.Competition, error)
	GetParticipation(competitionID, userID uint) (*models.Participation, error)
	// UpsertParticipation inserts the (competition, user) row or updates its
	// participating flag, leaving the recorded quantity untouched.
	UpsertParticipation(p *models.Participation) error
	// UpdateProgress sets the quantity of an opted-in participant and reports
	// how many rows changed; zero means the user is not participating.
	UpdateProgress(competitionID, userID uint, quantity int, at time.Time) (int64, error)
	Leaderboard(competitionID uint) ([]models.LeaderboardEntry, error)
}
