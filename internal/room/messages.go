package room

import "github.com/arcadehq/tictactoe-backend/internal/entity"

// Sender delivers one named event to a connected client. Implementations
// must be safe for use from the room goroutine.
type Sender interface {
	Send(event string, data any) error
}

// message is the closed set of inputs a room processes, one at a time, in
// arrival order.
type message interface{ isRoomMessage() }

type startMsg struct{}

type moveMsg struct {
	identity string
	row, col int
	reply    Sender
}

type clockExpiredMsg struct{ gen uint64 }

type tossDoneMsg struct{ gen uint64 }

type idleExpiredMsg struct{ gen uint64 }

type disconnectMsg struct{ identity string }

type graceExpiredMsg struct{ identity string }

type reconnectMsg struct {
	identity string
	userID   string
	symbol   string
	sender   Sender
}

type rematchVoteMsg struct {
	identity string
	reply    Sender
}

type leaveMsg struct {
	identity    string
	intentional bool
	reply       Sender
}

type snapshotMsg struct{ resp chan entity.RoomSnapshot }

func (startMsg) isRoomMessage()        {}
func (moveMsg) isRoomMessage()         {}
func (clockExpiredMsg) isRoomMessage() {}
func (tossDoneMsg) isRoomMessage()     {}
func (idleExpiredMsg) isRoomMessage()  {}
func (disconnectMsg) isRoomMessage()   {}
func (graceExpiredMsg) isRoomMessage() {}
func (reconnectMsg) isRoomMessage()    {}
func (rematchVoteMsg) isRoomMessage()  {}
func (leaveMsg) isRoomMessage()        {}
func (snapshotMsg) isRoomMessage()     {}
