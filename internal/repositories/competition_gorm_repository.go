package repositories

import (
	"fmt"
	"time"

	"waiterfm/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCompetitionRepository is a GORM implementation of CompetitionRepository.
type GORMCompetitionRepository struct {
	db *gorm.DB
}

// NewGORMCompetitionRepository creates a new instance of GORMCompetitionRepository.
func NewGORMCompetitionRepository(db *gorm.DB) *GORMCompetitionRepository {
	return &GORMCompetitionRepository{
		db: db,
	}
}

func (r *GORMCompetitionRepository) Activate(c *models.Competition) error {
	c.IsActive = true
	at := c.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Competition{}).
			Where("is_active = ?", true).
			Updates(map[string]interface{}{"is_active": false, "updated_at": at}).Error; err != nil {
			return fmt.Errorf("failed to deactivate previous competition: %w", err)
		}
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("failed to create competition: %w", translate(err))
		}
		return nil
	})
	if err != nil {
		c.ID = 0
		c.IsActive = false
		return err
	}
	return nil
}

func (r *GORMCompetitionRepository) DeactivateActive() (int64, error) {
	res := r.db.Model(&models.Competition{}).
		Where("is_active = ?", true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to deactivate competition: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GORMCompetitionRepository) GetActive() (*models.Competition, error) {
	var competition models.Competition
	if err := r.db.Where("is_active = ?", true).
		Order("created_at DESC").
		First(&competition).Error; err != nil {
		return nil, fmt.Errorf("failed to get active competition: %w", translate(err))
	}
	return &competition, nil
}

// GetAll returns every competition, newest first.
func (r *GORMCompetitionRepository) GetAll() ([]models.Competition, error) {
	competitions := make([]models.Competition, 0)
	if err := r.db.Order("created_at DESC").Order("id DESC").Find(&competitions).Error; err != nil {
		return nil, fmt.Errorf("failed to get competitions: %w", err)
	}
	return competitions, nil
}

func (r *GORMCompetitionRepository) GetParticipation(competitionID, userID uint) (*models.Participation, error) {
	var participation models.Participation
	if err := r.db.Where("competition_id = ? AND user_id = ?", competitionID, userID).
		First(&participation).Error; err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", translate(err))
	}
	return &participation, nil
}

func (r *GORMCompetitionRepository) UpsertParticipation(p *models.Participation) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "competition_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_participating", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("failed to upsert participation: %w", err)
	}
	return nil
}

func (r *GORMCompetitionRepository) UpdateProgress(competitionID, userID uint, quantity int, at time.Time) (int64, error) {
	res := r.db.Model(&models.Participation{}).
		Where("competition_id = ? AND user_id = ? AND is_participating = ?", competitionID, userID, true).
		Updates(map[string]interface{}{
			"actual_quantity": quantity,
			"updated_at":      at,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update progress: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Leaderboard lists participating users by quantity, highest first. Equal
// quantities are ordered by who reached them first.
func (r *GORMCompetitionRepository) Leaderboard(competitionID uint) ([]models.LeaderboardEntry, error) {
	entries := make([]models.LeaderboardEntry, 0)
	err := r.db.Table("competition_participation AS cp").
		Select("u.id AS user_id, u.username, u.first_name, u.last_name, u.restaurant_id, cp.actual_quantity, cp.updated_at").
		Joins("JOIN users u ON u.id = cp.user_id").
		Where("cp.competition_id = ? AND cp.is_participating = ?", competitionID, true).
		Order("cp.actual_quantity DESC").
		Order("cp.updated_at ASC").
		Order("cp.id ASC").
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard for competition %d: %w", competitionID, err)
	}
	return entries, nil
}
