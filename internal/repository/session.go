package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arcadehq/tictactoe-backend/internal/entity"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrSessionNotFound = errors.New("session not found")
)

// Bindings expire on their own so a crashed process cannot leak rooms in
// redis forever.
const sessionTTL = 24 * time.Hour

type SessionRepository interface {
	SaveRoom(ctx context.Context, snapshot *entity.RoomSnapshot) error
	GetRoom(ctx context.Context, id string) (*entity.RoomSnapshot, error)
	DeleteRoom(ctx context.Context, id string) error

	BindPlayer(ctx context.Context, identity, roomID string) error
	LookupPlayer(ctx context.Context, identity string) (string, error)
	UnbindPlayer(ctx context.Context, identity string) error
}

type dbSession struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) SessionRepository {
	return &dbSession{
		client: client,
	}
}

func (that *dbSession) SaveRoom(ctx context.Context, snapshot *entity.RoomSnapshot) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal room snapshot: %w", err)
	}

	roomKey := "room:" + snapshot.ID
	if err = that.client.Set(ctx, roomKey, snapshotJSON, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to set room snapshot: %w", err)
	}

	return nil
}

func (that *dbSession) GetRoom(ctx context.Context, id string) (*entity.RoomSnapshot, error) {
	roomKey := "room:" + id

	response, err := that.client.Get(ctx, roomKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room snapshot: %w", err)
	}

	var snapshot entity.RoomSnapshot
	if err = json.Unmarshal([]byte(response), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room snapshot: %w", err)
	}

	return &snapshot, nil
}

func (that *dbSession) DeleteRoom(ctx context.Context, id string) error {
	roomKey := "room:" + id

	if err := that.client.Del(ctx, roomKey).Err(); err != nil {
		return fmt.Errorf("failed to delete room snapshot: %w", err)
	}

	return nil
}

func (that *dbSession) BindPlayer(ctx context.Context, identity, roomID string) error {
	sessionKey := "session:" + identity

	if err := that.client.Set(ctx, sessionKey, roomID, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to bind player session: %w", err)
	}

	return nil
}

func (that *dbSession) LookupPlayer(ctx context.Context, identity string) (string, error) {
	sessionKey := "session:" + identity

	roomID, err := that.client.Get(ctx, sessionKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}

	if err != nil {
		return "", fmt.Errorf("failed to look up player session: %w", err)
	}

	return roomID, nil
}

func (that *dbSession) UnbindPlayer(ctx context.Context, identity string) error {
	sessionKey := "session:" + identity

	if err := that.client.Del(ctx, sessionKey).Err(); err != nil {
		return fmt.Errorf("failed to unbind player session: %w", err)
	}

	return nil
}
