package websocket

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadehq/tictactoe-backend/internal/apperror"
	"github.com/arcadehq/tictactoe-backend/internal/entity"
	"github.com/arcadehq/tictactoe-backend/internal/matchmaker"
	"github.com/arcadehq/tictactoe-backend/internal/registry"
	"github.com/arcadehq/tictactoe-backend/internal/repository"
	"github.com/arcadehq/tictactoe-backend/internal/room"
)

type nopSender struct{}

func (nopSender) Send(string, any) error { return nil }

type fakeVerifier struct{}

func (fakeVerifier) VerifyToken(string) (string, error) { return "", nil }

type fakeSessions struct {
	bindings map[string]string
	mirrors  map[string]*entity.RoomSnapshot
	dropped  []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		bindings: make(map[string]string),
		mirrors:  make(map[string]*entity.RoomSnapshot),
	}
}

func (that *fakeSessions) LookupPlayer(_ context.Context, identity string) (string, error) {
	roomID, ok := that.bindings[identity]
	if !ok {
		return "", repository.ErrSessionNotFound
	}

	return roomID, nil
}

func (that *fakeSessions) GetRoom(_ context.Context, id string) (*entity.RoomSnapshot, error) {
	snapshot, ok := that.mirrors[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}

	return snapshot, nil
}

func (that *fakeSessions) DeleteRoom(_ context.Context, id string) error {
	delete(that.mirrors, id)
	that.dropped = append(that.dropped, id)

	return nil
}

func newTestServer(t *testing.T, sessions sessionStore) (*Server, *room.Manager) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New(logger, time.Hour)

	cfg := room.Config{
		TurnDuration:     time.Hour,
		AnnounceDuration: time.Millisecond,
		IdleDuration:     time.Hour,
	}
	manager := room.NewManager(logger, cfg, reg, nil, nil)
	mm := matchmaker.New(logger, manager, reg)

	return New(logger, mm, manager, reg, fakeVerifier{}, sessions), manager
}

func TestServer_ResolveRoom(t *testing.T) {
	t.Run("LiveRoomByID", func(t *testing.T) {
		sessions := newFakeSessions()
		server, manager := newTestServer(t, sessions)

		created := manager.Create(&entity.Player{ID: "p1"}, &entity.Player{ID: "p2"}, nopSender{}, nopSender{})

		// When: the client still knows its room id
		resolved, err := server.resolveRoom(context.Background(), created.ID(), "")

		// Then: the live room is returned directly
		require.NoError(t, err)
		assert.Equal(t, created.ID(), resolved.ID())
	})

	t.Run("SessionBindingRoutesWithoutRoomID", func(t *testing.T) {
		sessions := newFakeSessions()
		server, manager := newTestServer(t, sessions)

		created := manager.Create(&entity.Player{ID: "p1"}, &entity.Player{ID: "p2"}, nopSender{}, nopSender{})
		sessions.bindings["old-session"] = created.ID()

		// When: the client only knows its previous session id
		resolved, err := server.resolveRoom(context.Background(), "", "old-session")

		// Then: the stored binding routes it back to the room
		require.NoError(t, err)
		assert.Equal(t, created.ID(), resolved.ID())
	})

	t.Run("UnknownSession", func(t *testing.T) {
		server, _ := newTestServer(t, newFakeSessions())

		// When: neither a room id nor a known session is presented
		_, err := server.resolveRoom(context.Background(), "", "ghost")

		// Then: the precise not-found error comes back
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)

		_, err = server.resolveRoom(context.Background(), "", "")
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("StaleMirrorDropped", func(t *testing.T) {
		// Given: a mirror left behind by an unclean shutdown, with no live room
		sessions := newFakeSessions()
		server, _ := newTestServer(t, sessions)
		sessions.mirrors["777"] = &entity.RoomSnapshot{ID: "777", Status: entity.StatusPlaying}

		// When: a client tries to reconnect to it
		_, err := server.resolveRoom(context.Background(), "777", "")

		// Then: the claim fails and the stale mirror is gone
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
		assert.Contains(t, sessions.dropped, "777")
		assert.NotContains(t, sessions.mirrors, "777")
	})
}
