package services

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"waiterfm/internal/apperrors"
	"waiterfm/internal/models"
	"waiterfm/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// Routing keys of competition lifecycle events.
const (
	EventCompetitionStarted  = "competition.started"
	EventCompetitionStopped  = "competition.stopped"
	EventCompetitionProgress = "competition.progress"
)

// EventPublisher delivers lifecycle events to a message broker.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// StartInput describes a new competition.
type StartInput struct {
	Item           string  `json:"item" validate:"required,max=255"`
	TargetQuantity int     `json:"targetQuantity" validate:"gt=0"`
	Prize          float64 `json:"prize" validate:"gte=0"`
	Description    string  `json:"description" validate:"required"`
}

// ParticipationStatus is the caller's standing in the active competition.
type ParticipationStatus struct {
	IsParticipating bool       `json:"is_participating"`
	ActualQuantity  int        `json:"actual_quantity"`
	ProgressPercent float64    `json:"progress"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// CompetitionStatus is returned by GetStatus. Both fields are nil when no
// competition is active.
type CompetitionStatus struct {
	Competition   *models.Competition  `json:"competition"`
	Participation *ParticipationStatus `json:"participation"`
}

// ProgressResult is returned after a successful progress update.
type ProgressResult struct {
	ActualQuantity  int     `json:"actualQuantity"`
	TargetQuantity  int     `json:"targetQuantity"`
	ProgressPercent float64 `json:"progress"`
}

// Leaderboard ranks the participants of the active competition.
type Leaderboard struct {
	Competition *models.Competition       `json:"competition"`
	Entries     []models.LeaderboardEntry `json:"leaderboard"`
}

// CompetitionService runs the lifecycle of the single active competition.
type CompetitionService struct {
	repo      repositories.CompetitionRepository
	publisher EventPublisher
	validate  *validator.Validate
	now       func() time.Time
}

// NewCompetitionService creates a new CompetitionService. publisher may be nil.
func NewCompetitionService(repo repositories.CompetitionRepository, publisher EventPublisher) *CompetitionService {
	return &CompetitionService{
		repo:      repo,
		publisher: publisher,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// SetClock replaces the time source used for timestamps.
func (s *CompetitionService) SetClock(now func() time.Time) {
	s.now = now
}

// Start replaces any active competition with a new one. Admin only.
func (s *CompetitionService) Start(caller Caller, in StartInput) (*models.Competition, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validate, in, "All fields are required"); err != nil {
		return nil, err
	}

	now := s.now()
	competition := &models.Competition{
		Item:           in.Item,
		TargetQuantity: in.TargetQuantity,
		Prize:          in.Prize,
		Description:    in.Description,
		CreatedBy:      caller.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Activate(competition); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.Wrap(apperrors.Conflict, err, "another competition was started concurrently")
		}
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to start competition")
	}

	log.Printf("Competition %d started by user %d: %s (target %d)", competition.ID, caller.ID, competition.Item, competition.TargetQuantity)
	s.publish(EventCompetitionStarted, map[string]interface{}{
		"competitionID":  competition.ID,
		"item":           competition.Item,
		"targetQuantity": competition.TargetQuantity,
		"prize":          competition.Prize,
		"createdBy":      caller.ID,
	})
	return competition, nil
}

// Stop deactivates the active competition. Participation rows are kept. Admin only.
func (s *CompetitionService) Stop(caller Caller) error {
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	changed, err := s.repo.DeactivateActive()
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, err, "failed to stop competition")
	}
	if changed == 0 {
		return apperrors.New(apperrors.NotFound, "No active competition found")
	}

	log.Printf("Active competition stopped by user %d", caller.ID)
	s.publish(EventCompetitionStopped, map[string]interface{}{"stoppedBy": caller.ID})
	return nil
}

// GetActive returns the active competition, or nil when there is none.
func (s *CompetitionService) GetActive() (*models.Competition, error) {
	competition, err := s.repo.GetActive()
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to get active competition")
	}
	return competition, nil
}

// ListAll returns every competition, newest first. Admin only.
func (s *CompetitionService) ListAll(caller Caller) ([]models.Competition, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	competitions, err := s.repo.GetAll()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to get competitions")
	}
	return competitions, nil
}

// SetParticipation opts the user in or out of the active competition.
// Toggling never resets the recorded quantity.
func (s *CompetitionService) SetParticipation(userID uint, participating bool) error {
	competition, err := s.requireActive()
	if err != nil {
		return err
	}
	now := s.now()
	participation := &models.Participation{
		CompetitionID:   competition.ID,
		UserID:          userID,
		IsParticipating: participating,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.UpsertParticipation(participation); err != nil {
		return apperrors.Wrap(apperrors.Internal, err, "failed to update participation")
	}
	return nil
}

// UpdateProgress records the user's sold quantity for the active competition.
func (s *CompetitionService) UpdateProgress(userID uint, actualQuantity int) (*ProgressResult, error) {
	if actualQuantity < 0 {
		return nil, apperrors.New(apperrors.InvalidInput, "Valid actual quantity is required")
	}
	competition, err := s.requireActive()
	if err != nil {
		return nil, err
	}

	changed, err := s.repo.UpdateProgress(competition.ID, userID, actualQuantity, s.now())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to update progress")
	}
	if changed == 0 {
		return nil, apperrors.New(apperrors.NotParticipating, "You are not participating in this competition")
	}

	result := &ProgressResult{
		ActualQuantity:  actualQuantity,
		TargetQuantity:  competition.TargetQuantity,
		ProgressPercent: competition.ProgressPercent(actualQuantity),
	}
	s.publish(EventCompetitionProgress, map[string]interface{}{
		"competitionID":  competition.ID,
		"userID":         userID,
		"actualQuantity": actualQuantity,
		"targetReached":  competition.TargetReached(actualQuantity),
	})
	return result, nil
}

// GetStatus returns the active competition and the user's participation in it.
func (s *CompetitionService) GetStatus(userID uint) (*CompetitionStatus, error) {
	competition, err := s.GetActive()
	if err != nil {
		return nil, err
	}
	if competition == nil {
		return &CompetitionStatus{}, nil
	}

	status := &CompetitionStatus{
		Competition:   competition,
		Participation: &ParticipationStatus{},
	}
	participation, err := s.repo.GetParticipation(competition.ID, userID)
	switch {
	case err == nil:
		updatedAt := participation.UpdatedAt
		status.Participation = &ParticipationStatus{
			IsParticipating: participation.IsParticipating,
			ActualQuantity:  participation.ActualQuantity,
			ProgressPercent: competition.ProgressPercent(participation.ActualQuantity),
			UpdatedAt:       &updatedAt,
		}
	case errors.Is(err, repositories.ErrRecordNotFound):
	default:
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to get participation")
	}
	return status, nil
}

// GetLeaderboard ranks participants of the active competition. Admin only.
func (s *CompetitionService) GetLeaderboard(caller Caller) (*Leaderboard, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	competition, err := s.requireActive()
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.Leaderboard(competition.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to get leaderboard")
	}
	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].TargetReached = competition.TargetReached(entries[i].ActualQuantity)
	}
	return &Leaderboard{Competition: competition, Entries: entries}, nil
}

func (s *CompetitionService) requireActive() (*models.Competition, error) {
	competition, err := s.GetActive()
	if err != nil {
		return nil, err
	}
	if competition == nil {
		return nil, apperrors.New(apperrors.NotFound, "No active competition found")
	}
	return competition, nil
}

// publish sends an event if a broker is configured. Failures are only logged.
func (s *CompetitionService) publish(routingKey string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	payload["event"] = routingKey
	payload["occurredAt"] = s.now().UTC().Format(time.RFC3339)
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.publisher.Publish(routingKey, body); err != nil {
		log.Printf("Warning: Failed to publish %s event: %v", routingKey, err)
	}
}
