package registry

import (
	"log/slog"
	"sync"
	"time"
)

// Room is the slice of a room the registry talks back to. Both calls are
// posted into the room's serialized inbox by the implementation.
type Room interface {
	ID() string
	PlayerDisconnected(identity string)
	GraceExpired(identity string)
}

type binding struct {
	room       Room
	connected  bool
	graceTimer *time.Timer
	lastSeen   time.Time
}

// Registry maps live player identities to their room and tracks the
// reconnection grace window after a transport drop. It is the only
// cross-room structure besides the matchmaker queue, so it keeps its own
// short-held lock.
type Registry struct {
	logger *slog.Logger
	grace  time.Duration

	mu       sync.Mutex
	bindings map[string]*binding
}

func New(logger *slog.Logger, grace time.Duration) *Registry {
	return &Registry{
		logger:   logger.With("component", "registry"),
		grace:    grace,
		bindings: make(map[string]*binding),
	}
}

// Bind associates an identity with a room and marks it connected. Rebinding
// an identity replaces its previous binding and cancels any grace timer.
func (that *Registry) Bind(identity string, room Room) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if prev, ok := that.bindings[identity]; ok && prev.graceTimer != nil {
		prev.graceTimer.Stop()
	}

	that.bindings[identity] = &binding{
		room:      room,
		connected: true,
		lastSeen:  time.Now(),
	}
}

// Release drops an identity's binding and cancels its grace timer. Safe to
// call for unknown identities.
func (that *Registry) Release(identity string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if b, ok := that.bindings[identity]; ok && b.graceTimer != nil {
		b.graceTimer.Stop()
	}

	delete(that.bindings, identity)
}

// RoomOf returns the room an identity is currently bound to.
func (that *Registry) RoomOf(identity string) (Room, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	b, ok := that.bindings[identity]
	if !ok {
		return nil, false
	}

	return b.room, true
}

// InRoom reports whether the identity currently owns a seat somewhere.
func (that *Registry) InRoom(identity string) bool {
	_, ok := that.RoomOf(identity)
	return ok
}

// Disconnect records a transport drop for the identity. If it is bound to a
// room the room is notified and a grace timer starts; on expiry the room is
// asked to resolve the absence. Unknown identities are a no-op.
func (that *Registry) Disconnect(identity string) {
	that.mu.Lock()

	b, ok := that.bindings[identity]
	if !ok || !b.connected {
		that.mu.Unlock()
		return
	}

	b.connected = false
	b.lastSeen = time.Now()

	if b.graceTimer != nil {
		b.graceTimer.Stop()
	}

	room := b.room
	b.graceTimer = time.AfterFunc(that.grace, func() {
		that.onGraceExpired(identity, room)
	})

	// The lock is dropped before talking to the room: its inbox send could
	// otherwise wait on a room goroutine that is calling back into us.
	that.mu.Unlock()

	that.logger.Info("player disconnected, grace window armed",
		"identity", identity, "roomID", room.ID(), "grace", that.grace)

	room.PlayerDisconnected(identity)
}

// Reconnected marks the identity live again and cancels its grace timer.
func (that *Registry) Reconnected(identity string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	b, ok := that.bindings[identity]
	if !ok {
		return
	}

	b.connected = true
	b.lastSeen = time.Now()

	if b.graceTimer != nil {
		b.graceTimer.Stop()
		b.graceTimer = nil
	}
}

func (that *Registry) onGraceExpired(identity string, room Room) {
	that.mu.Lock()
	b, ok := that.bindings[identity]
	if !ok || b.connected {
		// Reclaimed or released while the timer was firing.
		that.mu.Unlock()
		return
	}
	delete(that.bindings, identity)
	that.mu.Unlock()

	that.logger.Info("grace window expired", "identity", identity, "roomID", room.ID())

	room.GraceExpired(identity)
}
