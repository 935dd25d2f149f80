package matchmaker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/arcadehq/tictactoe-backend/internal/apperror"
	"github.com/arcadehq/tictactoe-backend/internal/entity"
	"github.com/arcadehq/tictactoe-backend/internal/room"
)

// RoomCreator seats a matched pair. Implemented by the room manager.
type RoomCreator interface {
	Create(first, second *entity.Player, firstConn, secondConn room.Sender) *room.Room
}

// SeatChecker reports whether an identity already owns a seat in some
// room. Implemented by the connection registry.
type SeatChecker interface {
	InRoom(identity string) bool
}

type waiting struct {
	player *entity.Player
	sender room.Sender
}

// Matchmaker is the single FIFO queue of waiting identities. It is the
// queue's only owner; every mutation happens under its lock, so a player
// can never be paired twice.
type Matchmaker struct {
	logger *slog.Logger
	rooms  RoomCreator
	seats  SeatChecker

	mu    sync.Mutex
	queue []waiting
}

func New(logger *slog.Logger, rooms RoomCreator, seats SeatChecker) *Matchmaker {
	return &Matchmaker{
		logger: logger.With("component", "matchmaker"),
		rooms:  rooms,
		seats:  seats,
	}
}

// Enqueue pairs the identity with the head of the queue, or parks it when
// nobody is waiting. The returned room is nil while waiting. Enqueueing an
// identity that is already queued is an idempotent no-op; an identity that
// already holds a seat is rejected.
func (that *Matchmaker) Enqueue(player *entity.Player, sender room.Sender) (*room.Room, error) {
	if that.seats != nil && that.seats.InRoom(player.ID) {
		return nil, apperror.ErrAlreadyInRoom
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	for _, w := range that.queue {
		if w.player.ID == player.ID {
			return nil, nil
		}
	}

	if len(that.queue) == 0 {
		player.JoinedAt = time.Now()
		that.queue = append(that.queue, waiting{player: player, sender: sender})

		that.logger.Info("player queued", "identity", player.ID)

		return nil, nil
	}

	head := that.queue[0]
	that.queue = that.queue[1:]

	newRoom := that.rooms.Create(head.player, player, head.sender, sender)

	that.logger.Info("players matched",
		"first", head.player.ID, "second", player.ID, "roomID", newRoom.ID())

	return newRoom, nil
}

// Remove takes the identity out of the queue. Removing an identity that
// was never queued (or was already paired) is a no-op.
func (that *Matchmaker) Remove(identity string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for i, w := range that.queue {
		if w.player.ID != identity {
			continue
		}

		that.queue = append(that.queue[:i], that.queue[i+1:]...)
		that.logger.Info("player left the queue", "identity", identity)

		return
	}
}

// Waiting reports the queue length.
func (that *Matchmaker) Waiting() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.queue)
}
