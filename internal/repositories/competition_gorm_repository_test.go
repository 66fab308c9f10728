package repositories_test

import (
	"testing"
	"time"

	"waiterfm/internal/models"
	"waiterfm/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGORMCompetitionRepository_ActivateKeepsSingleActive(t *testing.T) {
	repo := repositories.NewGORMCompetitionRepository(openTestDB(t))

	_, err := repo.GetActive()
	assert.ErrorIs(t, err, repositories.ErrRecordNotFound)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := &models.Competition{Item: "Wine", TargetQuantity: 10, Prize: 50, Description: "d", CreatedAt: base}
	require.NoError(t, repo.Activate(first))
	assert.True(t, first.IsActive)

	second := &models.Competition{Item: "Beer", TargetQuantity: 5, Prize: 20, Description: "d", CreatedAt: base.Add(time.Hour)}
	require.NoError(t, repo.Activate(second))

	active, err := repo.GetActive()
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.False(t, all[1].IsActive)

	changed, err := repo.DeactivateActive()
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)
	changed, err = repo.DeactivateActive()
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestGORMCompetitionRepository_Participation(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMCompetitionRepository(db)
	users := repositories.NewGORMUserRepository(db)
	alice := newUser("alice")
	require.NoError(t, users.Create(alice))

	competition := &models.Competition{Item: "Wine", TargetQuantity: 10, Prize: 50, Description: "d"}
	require.NoError(t, repo.Activate(competition))

	// Progress requires an opted-in row.
	changed, err := repo.UpdateProgress(competition.ID, alice.ID, 3, time.Now())
	require.NoError(t, err)
	assert.Zero(t, changed)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpsertParticipation(&models.Participation{
		CompetitionID: competition.ID, UserID: alice.ID, IsParticipating: true, CreatedAt: at, UpdatedAt: at,
	}))
	changed, err = repo.UpdateProgress(competition.ID, alice.ID, 4, at.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	// Opting out keeps the quantity and the single row.
	require.NoError(t, repo.UpsertParticipation(&models.Participation{
		CompetitionID: competition.ID, UserID: alice.ID, IsParticipating: false, CreatedAt: at, UpdatedAt: at.Add(2 * time.Minute),
	}))
	participation, err := repo.GetParticipation(competition.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, participation.IsParticipating)
	assert.Equal(t, 4, participation.ActualQuantity)

	var rows int64
	require.NoError(t, db.Model(&models.Participation{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	entries, err := repo.Leaderboard(competition.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = repo.GetParticipation(competition.ID, 999)
	assert.ErrorIs(t, err, repositories.ErrRecordNotFound)
}
