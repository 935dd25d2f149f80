package room

import "github.com/arcadehq/tictactoe-backend/internal/entity"

// Wire payloads for server-to-client events. Field names are the contract.

type roomJoinedPayload struct {
	RoomID       string               `json:"roomId"`
	Players      []entity.PlayerEntry `json:"players"`
	PlayerSymbol string               `json:"playerSymbol"`
}

type coinTossPayload struct {
	Result         string `json:"result"`
	StartingPlayer string `json:"startingPlayer"`
}

type gameStartPayload struct {
	GameState entity.BoardState    `json:"gameState"`
	Players   []entity.PlayerEntry `json:"players"`
}

type turnTimerPayload struct {
	StartTime int64 `json:"startTime"`
	Duration  int64 `json:"duration"`
}

type autoMovePayload struct {
	Player string `json:"player"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Reason string `json:"reason"`
}

type playerLeftPayload struct {
	GameState        entity.BoardState    `json:"gameState"`
	RemainingPlayers []entity.PlayerEntry `json:"remainingPlayers"`
	GameStatus       string               `json:"gameStatus"`
	Reason           string               `json:"reason"`
	PlayerID         string               `json:"playerId"`
	Intentional      bool                 `json:"intentional"`
}
