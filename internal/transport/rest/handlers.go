package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arcadehq/tictactoe-backend/internal/apperror"
	"github.com/arcadehq/tictactoe-backend/internal/entity"
)

type StatsHandler interface {
	UserStats(ctx echo.Context) error
	Status(ctx echo.Context) error
}

type statsService interface {
	UserStats(ctx context.Context, userID string) (*entity.User, error)
}

type roomCounter interface {
	Count() int
}

type queueCounter interface {
	Waiting() int
}

type statsHandler struct {
	logger *slog.Logger
	stats  statsService
	rooms  roomCounter
	queue  queueCounter
}

func NewStats(logger *slog.Logger, stats statsService, rooms roomCounter, queue queueCounter) StatsHandler {
	return &statsHandler{
		logger: logger,
		stats:  stats,
		rooms:  rooms,
		queue:  queue,
	}
}

// UserStats returns the persisted record and lifetime stats of one user.
func (that *statsHandler) UserStats(ctx echo.Context) error {
	user, err := that.stats.UserStats(ctx.Request().Context(), ctx.Param("id"))
	if errors.Is(err, apperror.ErrNotFound) {
		return ctx.String(http.StatusNotFound, "user not found")
	}
	if err != nil {
		that.logger.Error("failed to load user stats", "error", err)
		return ctx.String(http.StatusInternalServerError, "Internal Server Error")
	}

	return ctx.JSON(http.StatusOK, user)
}

// Status reports how many rooms are live and how many players are queued.
func (that *statsHandler) Status(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]int{
		"rooms":   that.rooms.Count(),
		"waiting": that.queue.Waiting(),
	})
}
