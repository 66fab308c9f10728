package services

import (
	"errors"
	"strings"

	"waiterfm/internal/apperrors"
	"waiterfm/internal/models"
	"waiterfm/internal/repositories"
)

// WaiterService manages the waiter name roster.
type WaiterService struct {
	repo repositories.WaiterRepository
}

// NewWaiterService creates a new WaiterService.
func NewWaiterService(repo repositories.WaiterRepository) *WaiterService {
	return &WaiterService{
		repo: repo,
	}
}

// ListNames returns the roster names in alphabetical order.
func (s *WaiterService) ListNames() ([]string, error) {
	waiters, err := s.repo.GetAll()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to get waiters")
	}
	names := make([]string, 0, len(waiters))
	for _, w := range waiters {
		names = append(names, w.Name)
	}
	return names, nil
}

// AddWaiter adds a unique name to the roster.
func (s *WaiterService) AddWaiter(name string) (*models.Waiter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.New(apperrors.InvalidInput, "Waiter name is required")
	}
	waiter := &models.Waiter{Name: name}
	if err := s.repo.Create(waiter); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.Wrap(apperrors.Conflict, err, "Waiter name already exists")
		}
		return nil, apperrors.Wrap(apperrors.Internal, err, "failed to add waiter")
	}
	return waiter, nil
}
