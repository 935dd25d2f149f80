package room

import (
	"log/slog"
	"sync"
	"time"

	"github.com/arcadehq/tictactoe-backend/internal/apperror"
	"github.com/arcadehq/tictactoe-backend/internal/entity"
	"github.com/arcadehq/tictactoe-backend/internal/pkg"
	"github.com/arcadehq/tictactoe-backend/internal/registry"
)

// Manager owns the set of live rooms. Rooms remove themselves when they
// reach their terminal state.
type Manager struct {
	logger   *slog.Logger
	cfg      Config
	registry *registry.Registry
	sessions SessionStore
	stats    StatsRecorder

	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewManager(logger *slog.Logger, cfg Config, reg *registry.Registry, sessions SessionStore, stats StatsRecorder) *Manager {
	return &Manager{
		logger:   logger,
		cfg:      cfg,
		registry: reg,
		sessions: sessions,
		stats:    stats,
		rooms:    make(map[string]*Room),
	}
}

// Create seats two matched players into a fresh room. The first player
// (the one who waited) plays X, the second plays O, fixed for the room's
// lifetime.
func (that *Manager) Create(first, second *entity.Player, firstConn, secondConn Sender) *Room {
	now := time.Now()

	first.Symbol = entity.PlayerX
	second.Symbol = entity.PlayerO
	first.Connected = true
	second.Connected = true
	first.JoinedAt = now
	second.JoinedAt = now

	id := pkg.GenerateRoomID()

	newRoom := New(
		that.logger,
		id,
		that.cfg,
		[maxSeats]*entity.Player{first, second},
		[maxSeats]Sender{firstConn, secondConn},
		that.registry,
		that.sessions,
		that.stats,
		that.remove,
	)

	that.mu.Lock()
	that.rooms[id] = newRoom
	that.mu.Unlock()

	// Both identities are seated the instant the pair exists; the queue's
	// AlreadyInRoom check must not wait for Start to run.
	that.registry.Bind(first.ID, newRoom)
	that.registry.Bind(second.ID, newRoom)

	return newRoom
}

// Get returns a live room by id.
func (that *Manager) Get(id string) (*Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	existing, ok := that.rooms[id]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return existing, nil
}

// Count reports the number of live rooms.
func (that *Manager) Count() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}

func (that *Manager) remove(id string) {
	that.mu.Lock()
	delete(that.rooms, id)
	that.mu.Unlock()
}
