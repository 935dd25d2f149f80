package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arcadehq/tictactoe-backend/internal/apperror"
	"github.com/arcadehq/tictactoe-backend/internal/entity"
)

type UserRepository interface {
	Upsert(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	SaveStats(ctx context.Context, userID string, stats entity.UserStats) error
}

type userRepository struct {
	conn *sql.DB
}

func NewUserRepository(conn *sql.DB) UserRepository {
	return &userRepository{
		conn: conn,
	}
}

func (that *userRepository) Upsert(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (id, email, display_name, photo_url, level, created_at, last_active)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			photo_url = excluded.photo_url,
			last_active = excluded.last_active`

	_, err := that.conn.ExecContext(ctx, query,
		user.ID, user.Email, user.DisplayName, user.PhotoURL, user.CreatedAt, user.LastActive)
	if err != nil {
		return fmt.Errorf("can't save user: %w", err)
	}

	return nil
}

func (that *userRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT id, email, display_name, photo_url,
			games_played, wins, losses, draws, level, xp, created_at, last_active
		FROM users WHERE id = ?`

	var user entity.User

	err := that.conn.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.PhotoURL,
		&user.Stats.GamesPlayed, &user.Stats.Wins, &user.Stats.Losses, &user.Stats.Draws,
		&user.Stats.Level, &user.Stats.XP, &user.CreatedAt, &user.LastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find user: %w", err)
	}

	return &user, nil
}

func (that *userRepository) SaveStats(ctx context.Context, userID string, stats entity.UserStats) error {
	query := `UPDATE users SET
			games_played = ?, wins = ?, losses = ?, draws = ?, level = ?, xp = ?,
			last_active = CURRENT_TIMESTAMP
		WHERE id = ?`

	result, err := that.conn.ExecContext(ctx, query,
		stats.GamesPlayed, stats.Wins, stats.Losses, stats.Draws, stats.Level, stats.XP, userID)
	if err != nil {
		return fmt.Errorf("can't save user stats: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't read affected rows: %w", err)
	}

	if affected == 0 {
		return apperror.ErrNotFound
	}

	return nil
}
