package room

// Server-to-client event names. These are the wire contract and must not
// change.
const (
	EventWaitingForOpponent = "waiting-for-opponent"
	EventRoomJoined         = "room-joined"
	EventCoinToss           = "coin-toss"
	EventGameStart          = "game-start"
	EventGameState          = "game-state"
	EventTurnTimerStart     = "turn-timer-start"
	EventAutoMove           = "auto-move"
	EventRematchRequested   = "rematch-requested"
	EventPlayerLeft         = "player-left"
	EventError              = "error"
)

// Reasons reported in player-left and auto-move payloads.
const (
	ReasonTimeout         = "timeout"
	ReasonDisconnect      = "disconnect"
	ReasonLeave           = "leave"
	ReasonOpponentTimeout = "opponentTimeout"
)

const (
	coinHeads = "heads"
	coinTails = "tails"
)
