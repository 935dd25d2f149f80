package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadehq/tictactoe-backend/internal/apperror"
	"github.com/arcadehq/tictactoe-backend/internal/entity"
)

type memoryUserRepo struct {
	users map[string]*entity.User
}

func newMemoryUserRepo(users ...*entity.User) *memoryUserRepo {
	repo := &memoryUserRepo{users: make(map[string]*entity.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}

	return repo
}

func (that *memoryUserRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	user, ok := that.users[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}

	copied := *user

	return &copied, nil
}

func (that *memoryUserRepo) SaveStats(_ context.Context, userID string, stats entity.UserStats) error {
	user, ok := that.users[userID]
	if !ok {
		return apperror.ErrNotFound
	}

	user.Stats = stats

	return nil
}

func newStats(repo *memoryUserRepo) StatsService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStatsService(logger, repo)
}

func TestStatsService_Record(t *testing.T) {
	t.Run("Win", func(t *testing.T) {
		repo := newMemoryUserRepo(&entity.User{ID: "u1", Stats: entity.UserStats{Level: 1}})
		stats := newStats(repo)

		// When: a win is recorded
		_, err := stats.Record(context.Background(), "u1", entity.OutcomeWin)
		require.NoError(t, err)

		// Then: counters and XP move
		saved := repo.users["u1"].Stats
		assert.Equal(t, 1, saved.GamesPlayed)
		assert.Equal(t, 1, saved.Wins)
		assert.Equal(t, 30, saved.XP)
	})

	t.Run("DrawAndLoss", func(t *testing.T) {
		repo := newMemoryUserRepo(&entity.User{ID: "u1", Stats: entity.UserStats{Level: 1}})
		stats := newStats(repo)

		_, err := stats.Record(context.Background(), "u1", entity.OutcomeDraw)
		require.NoError(t, err)
		_, err = stats.Record(context.Background(), "u1", entity.OutcomeLoss)
		require.NoError(t, err)

		saved := repo.users["u1"].Stats
		assert.Equal(t, 2, saved.GamesPlayed)
		assert.Equal(t, 1, saved.Draws)
		assert.Equal(t, 1, saved.Losses)
		assert.Equal(t, 15, saved.XP)
	})

	t.Run("LevelUp", func(t *testing.T) {
		// Given: a user 30 XP short of level 2
		repo := newMemoryUserRepo(&entity.User{ID: "u1", Stats: entity.UserStats{Level: 1, XP: 45}})
		stats := newStats(repo)

		// When: a win pushes the user over the threshold
		change, err := stats.Record(context.Background(), "u1", entity.OutcomeWin)
		require.NoError(t, err)

		// Then: the level bump is reported
		assert.True(t, change.LeveledUp)
		assert.Equal(t, 2, change.NewLevel)
		assert.Equal(t, 2, repo.users["u1"].Stats.Level)
	})

	t.Run("UnknownOutcome", func(t *testing.T) {
		repo := newMemoryUserRepo(&entity.User{ID: "u1", Stats: entity.UserStats{Level: 1}})
		stats := newStats(repo)

		_, err := stats.Record(context.Background(), "u1", "banana")
		require.Error(t, err)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		stats := newStats(newMemoryUserRepo())

		_, err := stats.Record(context.Background(), "ghost", entity.OutcomeWin)
		require.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestLevelCurve(t *testing.T) {
	// The curve is quadratic: leaving level n costs n^2 * 50 total XP.
	assert.Equal(t, 1, LevelFromXP(0))
	assert.Equal(t, 1, LevelFromXP(49))
	assert.Equal(t, 2, LevelFromXP(50))
	assert.Equal(t, 2, LevelFromXP(199))
	assert.Equal(t, 3, LevelFromXP(200))

	assert.Equal(t, 50, XPForLevel(1))
	assert.Equal(t, 200, XPForLevel(2))

	assert.Equal(t, 50, XPToNextLevel(0))
	assert.Equal(t, 150, XPToNextLevel(50))
}
