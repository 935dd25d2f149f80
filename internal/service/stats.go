package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/arcadehq/tictactoe-backend/internal/entity"
)

// XP awarded per recorded outcome.
const (
	xpWin  = 30
	xpDraw = 10
	xpLoss = 5
)

type statsUserRepo interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
	SaveStats(ctx context.Context, userID string, stats entity.UserStats) error
}

// StatsService records finished games for authenticated players and keeps
// their level in sync with accumulated XP.
type StatsService interface {
	Record(ctx context.Context, userID, outcome string) (entity.LevelChange, error)
	UserStats(ctx context.Context, userID string) (*entity.User, error)
}

type statsService struct {
	logger *slog.Logger
	users  statsUserRepo
}

func NewStatsService(logger *slog.Logger, users statsUserRepo) StatsService {
	return &statsService{
		logger: logger.With("component", "stats"),
		users:  users,
	}
}

func (that *statsService) Record(ctx context.Context, userID, outcome string) (entity.LevelChange, error) {
	user, err := that.users.FindByID(ctx, userID)
	if err != nil {
		return entity.LevelChange{}, fmt.Errorf("could not load user: %w", err)
	}

	stats := user.Stats
	stats.GamesPlayed++

	switch outcome {
	case entity.OutcomeWin:
		stats.Wins++
		stats.XP += xpWin
	case entity.OutcomeDraw:
		stats.Draws++
		stats.XP += xpDraw
	case entity.OutcomeLoss:
		stats.Losses++
		stats.XP += xpLoss
	default:
		return entity.LevelChange{}, fmt.Errorf("unknown outcome %q", outcome)
	}

	newLevel := LevelFromXP(stats.XP)
	leveledUp := newLevel > stats.Level
	stats.Level = newLevel
	stats.XPToNextLevel = XPToNextLevel(stats.XP)

	if err = that.users.SaveStats(ctx, userID, stats); err != nil {
		return entity.LevelChange{}, fmt.Errorf("could not save stats: %w", err)
	}

	change := entity.LevelChange{LeveledUp: leveledUp}
	if leveledUp {
		change.NewLevel = newLevel
	}

	return change, nil
}

func (that *statsService) UserStats(ctx context.Context, userID string) (*entity.User, error) {
	user, err := that.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("could not load user: %w", err)
	}

	user.Stats.XPToNextLevel = XPToNextLevel(user.Stats.XP)

	return user, nil
}

// XPForLevel returns the total XP required to leave the given level.
func XPForLevel(level int) int {
	return level * level * 50
}

// LevelFromXP maps accumulated XP to a level.
func LevelFromXP(xp int) int {
	return int(math.Sqrt(float64(xp)/50)) + 1
}

// XPToNextLevel returns the XP still missing for the next level.
func XPToNextLevel(xp int) int {
	return XPForLevel(LevelFromXP(xp)) - xp
}
