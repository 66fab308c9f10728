package services_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"waiterfm/internal/apperrors"
	"waiterfm/internal/database"
	"waiterfm/internal/models"
	"waiterfm/internal/repositories"
	"waiterfm/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(routingKey string, body []byte) error {
	args := m.Called(routingKey, body)
	return args.Error(0)
}

type testClock struct {
	current time.Time
}

func (c *testClock) Now() time.Time {
	return c.current
}

func (c *testClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username, role string) services.Caller {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    username,
		LastName:     "Tester",
		Role:         role,
		RestaurantID: "downtown",
		IsActive:     true,
	}
	require.NoError(t, repositories.NewGORMUserRepository(db).Create(user))
	return services.Caller{ID: user.ID, Role: role}
}

type competitionFixture struct {
	service *services.CompetitionService
	clock   *testClock
	db      *gorm.DB
	admin   services.Caller
}

func newCompetitionFixture(t *testing.T, publisher services.EventPublisher) *competitionFixture {
	t.Helper()
	db := openTestDB(t)
	clock := &testClock{current: time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)}
	service := services.NewCompetitionService(repositories.NewGORMCompetitionRepository(db), publisher)
	service.SetClock(clock.Now)
	return &competitionFixture{
		service: service,
		clock:   clock,
		db:      db,
		admin:   createUser(t, db, "admin", models.RoleAdmin),
	}
}

func wineContest() services.StartInput {
	return services.StartInput{Item: "Wine", TargetQuantity: 10, Prize: 50, Description: "Sell the most wine"}
}

func TestCompetitionService_FullRound(t *testing.T) {
	f := newCompetitionFixture(t, nil)
	alice := createUser(t, f.db, "alice", models.RoleWaiter)
	bob := createUser(t, f.db, "bob", models.RoleWaiter)

	active, err := f.service.GetActive()
	require.NoError(t, err)
	assert.Nil(t, active)

	competition, err := f.service.Start(f.admin, wineContest())
	require.NoError(t, err)
	assert.NotZero(t, competition.ID)
	assert.True(t, competition.IsActive)
	assert.Equal(t, f.admin.ID, competition.CreatedBy)

	require.NoError(t, f.service.SetParticipation(alice.ID, true))
	f.clock.Advance(time.Minute)
	result, err := f.service.UpdateProgress(alice.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, result.ActualQuantity)
	assert.Equal(t, 10, result.TargetQuantity)
	assert.InDelta(t, 70.0, result.ProgressPercent, 0.001)

	require.NoError(t, f.service.SetParticipation(bob.ID, true))
	f.clock.Advance(time.Minute)
	result, err = f.service.UpdateProgress(bob.ID, 12)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, result.ProgressPercent, 0.001)

	board, err := f.service.GetLeaderboard(f.admin)
	require.NoError(t, err)
	assert.Equal(t, competition.ID, board.Competition.ID)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, "bob", board.Entries[0].Username)
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.True(t, board.Entries[0].TargetReached)
	assert.Equal(t, "alice", board.Entries[1].Username)
	assert.Equal(t, 2, board.Entries[1].Rank)
	assert.False(t, board.Entries[1].TargetReached)
	assert.Equal(t, "downtown", board.Entries[1].RestaurantID)

	status, err := f.service.GetStatus(alice.ID)
	require.NoError(t, err)
	require.NotNil(t, status.Participation)
	assert.True(t, status.Participation.IsParticipating)
	assert.Equal(t, 7, status.Participation.ActualQuantity)
	assert.InDelta(t, 70.0, status.Participation.ProgressPercent, 0.001)

	require.NoError(t, f.service.Stop(f.admin))
	active, err = f.service.GetActive()
	require.NoError(t, err)
	assert.Nil(t, active)

	status, err = f.service.GetStatus(alice.ID)
	require.NoError(t, err)
	assert.Nil(t, status.Competition)
	assert.Nil(t, status.Participation)

	// Participation rows outlive the competition.
	var rows int64
	require.NoError(t, f.db.Model(&models.Participation{}).Count(&rows).Error)
	assert.Equal(t, int64(2), rows)
}

func TestCompetitionService_StartReplacesActive(t *testing.T) {
	f := newCompetitionFixture(t, nil)
	waiter := createUser(t, f.db, "alice", models.RoleWaiter)

	first, err := f.service.Start(f.admin, wineContest())
	require.NoError(t, err)
	require.NoError(t, f.service.SetParticipation(waiter.ID, true))
	_, err = f.service.UpdateProgress(waiter.ID, 4)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	second, err := f.service.Start(f.admin, services.StartInput{Item: "Dessert", TargetQuantity: 5, Prize: 20, Description: "Sweet"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	active, err := f.service.GetActive()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)

	all, err := f.service.ListAll(f.admin)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.True(t, all[0].IsActive)
	assert.False(t, all[1].IsActive)

	var activeCount int64
	require.NoError(t, f.db.Model(&models.Competition{}).Where("is_active = ?", true).Count(&activeCount).Error)
	assert.Equal(t, int64(1), activeCount)

	// Participation does not carry over to the new competition.
	status, err := f.service.GetStatus(waiter.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, status.Competition.ID)
	require.NotNil(t, status.Participation)
	assert.False(t, status.Participation.IsParticipating)
	assert.Zero(t, status.Participation.ActualQuantity)
	assert.Nil(t, status.Participation.UpdatedAt)

	_, err = f.service.UpdateProgress(waiter.ID, 1)
	assert.True(t, apperrors.Is(err, apperrors.NotParticipating))
}

func TestCompetitionService_ToggleKeepsQuantity(t *testing.T) {
	f := newCompetitionFixture(t, nil)
	waiter := createUser(t, f.db, "alice", models.RoleWaiter)
	_, err := f.service.Start(f.admin, wineContest())
	require.NoError(t, err)

	require.NoError(t, f.service.SetParticipation(waiter.ID, true))
	_, err = f.service.UpdateProgress(waiter.ID, 6)
	require.NoError(t, err)

	require.NoError(t, f.service.SetParticipation(waiter.ID, false))
	_, err = f.service.UpdateProgress(waiter.ID, 8)
	assert.True(t, apperrors.Is(err, apperrors.NotParticipating))

	board, err := f.service.GetLeaderboard(f.admin)
	require.NoError(t, err)
	assert.Empty(t, board.Entries)

	status, err := f.service.GetStatus(waiter.ID)
	require.NoError(t, err)
	assert.False(t, status.Participation.IsParticipating)
	assert.Equal(t, 6, status.Participation.ActualQuantity)

	require.NoError(t, f.service.SetParticipation(waiter.ID, true))
	status, err = f.service.GetStatus(waiter.ID)
	require.NoError(t, err)
	assert.True(t, status.Participation.IsParticipating)
	assert.Equal(t, 6, status.Participation.ActualQuantity)
}

func TestCompetitionService_LeaderboardTieBreak(t *testing.T) {
	f := newCompetitionFixture(t, nil)
	alice := createUser(t, f.db, "alice", models.RoleWaiter)
	bob := createUser(t, f.db, "bob", models.RoleWaiter)
	carol := createUser(t, f.db, "carol", models.RoleWaiter)
	_, err := f.service.Start(f.admin, wineContest())
	require.NoError(t, err)

	for _, c := range []services.Caller{alice, bob, carol} {
		require.NoError(t, f.service.SetParticipation(c.ID, true))
	}

	// Bob reaches 9 first, Alice later; Carol stays behind.
	f.clock.Advance(time.Minute)
	_, err = f.service.UpdateProgress(bob.ID, 9)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.service.UpdateProgress(alice.ID, 9)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.service.UpdateProgress(carol.ID, 3)
	require.NoError(t, err)

	board, err := f.service.GetLeaderboard(f.admin)
	require.NoError(t, err)
	require.Len(t, board.Entries, 3)
	assert.Equal(t, []string{"bob", "alice", "carol"}, []string{
		board.Entries[0].Username, board.Entries[1].Username, board.Entries[2].Username,
	})
	assert.Equal(t, []int{1, 2, 3}, []int{board.Entries[0].Rank, board.Entries[1].Rank, board.Entries[2].Rank})
}

func TestCompetitionService_NoActiveCompetition(t *testing.T) {
	f := newCompetitionFixture(t, nil)
	waiter := createUser(t, f.db, "alice", models.RoleWaiter)

	err := f.service.Stop(f.admin)
	assert.True(t, apperrors.Is(err, apperrors.NotFound))

	err = f.service.SetParticipation(waiter.ID, true)
	assert.True(t, apperrors.Is(err, apperrors.NotFound))

	_, err = f.service.UpdateProgress(waiter.ID, 3)
	assert.True(t, apperrors.Is(err, apperrors.NotFound))

	_, err = f.service.GetLeaderboard(f.admin)
	assert.True(t, apperrors.Is(err, apperrors.NotFound))

	// Quantity validation runs before the active competition lookup.
	_, err = f.service.UpdateProgress(waiter.ID, -1)
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))

	status, err := f.service.GetStatus(waiter.ID)
	require.NoError(t, err)
	assert.Nil(t, status.Competition)

	all, err := f.service.ListAll(f.admin)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCompetitionService_AdminGuardsAndValidation(t *testing.T) {
	f := newCompetitionFixture(t, nil)
	waiter := createUser(t, f.db, "alice", models.RoleWaiter)

	_, err := f.service.Start(waiter, wineContest())
	assert.True(t, apperrors.Is(err, apperrors.Forbidden))
	assert.True(t, apperrors.Is(f.service.Stop(waiter), apperrors.Forbidden))
	_, err = f.service.ListAll(waiter)
	assert.True(t, apperrors.Is(err, apperrors.Forbidden))
	_, err = f.service.GetLeaderboard(waiter)
	assert.True(t, apperrors.Is(err, apperrors.Forbidden))

	for name, in := range map[string]services.StartInput{
		"item":        {TargetQuantity: 10, Prize: 5, Description: "d"},
		"target":      {Item: "Wine", TargetQuantity: 0, Prize: 5, Description: "d"},
		"prize":       {Item: "Wine", TargetQuantity: 10, Prize: -1, Description: "d"},
		"description": {Item: "Wine", TargetQuantity: 10, Prize: 5},
	} {
		_, err := f.service.Start(f.admin, in)
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput), "invalid %s", name)
	}

	active, err := f.service.GetActive()
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestCompetitionService_PublishesEvents(t *testing.T) {
	publisher := new(MockEventPublisher)
	f := newCompetitionFixture(t, publisher)
	waiter := createUser(t, f.db, "alice", models.RoleWaiter)

	eventBody := func(event string, check func(map[string]interface{}) bool) interface{} {
		return mock.MatchedBy(func(body []byte) bool {
			var payload map[string]interface{}
			if err := json.Unmarshal(body, &payload); err != nil {
				return false
			}
			return payload["event"] == event && payload["occurredAt"] == "2024-05-01T18:00:00Z" && check(payload)
		})
	}

	publisher.On("Publish", services.EventCompetitionStarted, eventBody(services.EventCompetitionStarted, func(p map[string]interface{}) bool {
		return p["item"] == "Wine" && p["targetQuantity"] == float64(10)
	})).Return(nil).Once()
	publisher.On("Publish", services.EventCompetitionProgress, eventBody(services.EventCompetitionProgress, func(p map[string]interface{}) bool {
		return p["actualQuantity"] == float64(10) && p["targetReached"] == true
	})).Return(errors.New("broker unavailable")).Once()
	publisher.On("Publish", services.EventCompetitionStopped, mock.Anything).Return(nil).Once()

	_, err := f.service.Start(f.admin, wineContest())
	require.NoError(t, err)
	require.NoError(t, f.service.SetParticipation(waiter.ID, true))

	// A failing broker does not fail the update.
	result, err := f.service.UpdateProgress(waiter.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, result.ActualQuantity)

	require.NoError(t, f.service.Stop(f.admin))
	publisher.AssertExpectations(t)
}
