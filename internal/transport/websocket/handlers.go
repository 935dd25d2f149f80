package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/arcadehq/tictactoe-backend/internal/apperror"
	"github.com/arcadehq/tictactoe-backend/internal/entity"
	"github.com/arcadehq/tictactoe-backend/internal/repository"
	"github.com/arcadehq/tictactoe-backend/internal/room"
)

const defaultPlayerName = "Player"

func (that *Server) handleJoinMatchmaking(_ context.Context, c *client, data json.RawMessage) error {
	var payload joinMatchmakingPayload

	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal matchmaking payload: %w", err)
		}
	}

	if payload.Token != "" {
		userID, err := that.auth.VerifyToken(payload.Token)
		if err != nil {
			return err
		}

		c.userID = userID
	}

	if payload.Name == "" {
		payload.Name = defaultPlayerName
	}

	c.name = payload.Name
	c.avatar = payload.Avatar

	player := &entity.Player{
		ID:        c.id,
		UserID:    c.userID,
		Name:      payload.Name,
		Avatar:    payload.Avatar,
		Connected: true,
	}

	matched, err := that.matchmaker.Enqueue(player, c)
	if err != nil {
		return err
	}

	if matched == nil {
		return c.Send(room.EventWaitingForOpponent, struct{}{})
	}

	matched.Start()

	return nil
}

func (that *Server) handleMakeMove(_ context.Context, c *client, data json.RawMessage) error {
	var payload makeMovePayload

	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal move payload: %w", err)
	}

	target, err := that.rooms.Get(payload.RoomID)
	if err != nil {
		return err
	}

	target.SubmitMove(c.id, payload.Move.Row, payload.Move.Col, c)

	return nil
}

func (that *Server) handleRematchVote(_ context.Context, c *client, data json.RawMessage) error {
	ref, err := parseRoomRef(data)
	if err != nil {
		return fmt.Errorf("failed to unmarshal rematch payload: %w", err)
	}

	target, err := that.rooms.Get(ref.RoomID)
	if err != nil {
		return err
	}

	target.VoteRematch(c.id, c)

	return nil
}

func (that *Server) handleReconnect(ctx context.Context, c *client, data json.RawMessage) error {
	var payload reconnectPayload

	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal reconnect payload: %w", err)
	}

	var userID string

	if payload.Token != "" {
		verified, err := that.auth.VerifyToken(payload.Token)
		if err != nil {
			return err
		}

		userID = verified
		c.userID = verified
	}

	target, err := that.resolveRoom(ctx, payload.RoomID, payload.SessionID)
	if err != nil {
		return err
	}

	target.Reconnect(c.id, userID, strings.ToUpper(payload.PlayerSymbol), c)

	return nil
}

// resolveRoom routes a reconnecting client to its live room. A client that
// only knows its previous session id is routed through the stored binding;
// a room id whose room is gone resolves to RoomNotFound, dropping any mirror
// a crashed process left behind.
func (that *Server) resolveRoom(ctx context.Context, roomID, sessionID string) (*room.Room, error) {
	if roomID == "" {
		if sessionID == "" || that.sessions == nil {
			return nil, apperror.ErrRoomNotFound
		}

		boundRoomID, err := that.sessions.LookupPlayer(ctx, sessionID)
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperror.ErrRoomNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up session binding: %w", err)
		}

		roomID = boundRoomID
	}

	target, err := that.rooms.Get(roomID)
	if err == nil {
		return target, nil
	}

	if !errors.Is(err, apperror.ErrRoomNotFound) || that.sessions == nil {
		return nil, err
	}

	if _, mirrorErr := that.sessions.GetRoom(ctx, roomID); mirrorErr == nil {
		that.logger.Warn("dropping stale room mirror", "roomID", roomID)

		if delErr := that.sessions.DeleteRoom(ctx, roomID); delErr != nil {
			that.logger.Error("failed to drop stale room mirror", "roomID", roomID, "error", delErr)
		}
	}

	return nil, apperror.ErrRoomNotFound
}

func (that *Server) handleLeave(_ context.Context, c *client, data json.RawMessage) error {
	var payload leavePayload

	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal leave payload: %w", err)
	}

	target, err := that.rooms.Get(payload.RoomID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		// Leaving a room that already closed is a no-op, not a failure.
		return nil
	}
	if err != nil {
		return err
	}

	target.Leave(c.id, payload.Intentional, c)

	return nil
}
