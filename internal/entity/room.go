package entity

// Room lifecycle statuses. Transitions are total-ordered:
// lobby -> coin-toss -> playing -> game-over -> closed, with game-over able
// to loop back to coin-toss on a committed rematch.
const (
	StatusLobby    = "lobby"
	StatusCoinToss = "coin-toss"
	StatusPlaying  = "playing"
	StatusGameOver = "game-over"
	StatusClosed   = "closed"
)

// BoardState is the authoritative state pushed to clients on every change.
// Field names are the wire contract.
type BoardState struct {
	Cells         [BoardSize][BoardSize]Cell `json:"cells"`
	CurrentPlayer string                     `json:"currentPlayer"`
	GameOver      bool                       `json:"gameOver"`
	Winner        *string                    `json:"winner"`
}

// NewBoardState snapshots a board into the wire shape. winner must be nil
// while the game is undecided so the client sees a JSON null.
func NewBoardState(board Board, turn string, gameOver bool, winner string) BoardState {
	state := BoardState{
		Cells:         board,
		CurrentPlayer: turn,
		GameOver:      gameOver,
	}
	if winner != "" {
		state.Winner = &winner
	}

	return state
}

// RoomSnapshot is the room mirror kept in redis so reconnect routing and
// seat ownership checks survive a lost transport.
type RoomSnapshot struct {
	ID      string     `json:"id"`
	Status  string     `json:"status"`
	State   BoardState `json:"state"`
	MoveSeq uint64     `json:"move_seq"`
	Players []*Player  `json:"players"`
}
