package entity

import (
	"encoding/json"
	"time"
)

// Player is one seat of a room. ID is the current transport identity (an
// ephemeral session id); UserID is the stable authenticated id, empty for
// anonymous players. The symbol assignment is fixed for the room's lifetime.
type Player struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	Symbol    string    `json:"symbol"`
	Connected bool      `json:"-"`
	JoinedAt  time.Time `json:"-"`
	LastSeen  time.Time `json:"-"`
}

func (that *Player) IsAuthenticated() bool {
	return that.UserID != ""
}

// PlayerEntry serializes a seat as the [id, player] tuple the client
// consumes in room-joined and game-start payloads.
type PlayerEntry struct {
	ID     string
	Player *Player
}

type wirePlayer struct {
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
	Symbol   string `json:"symbol"`
	JoinedAt int64  `json:"joinedAt"`
}

func (that PlayerEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{that.ID, wirePlayer{
		Name:     that.Player.Name,
		Avatar:   that.Player.Avatar,
		Symbol:   that.Player.Symbol,
		JoinedAt: that.Player.JoinedAt.UnixMilli(),
	}})
}

// PlayerEntries builds the wire tuples for a seat list, skipping empty seats.
func PlayerEntries(players []*Player) []PlayerEntry {
	entries := make([]PlayerEntry, 0, len(players))
	for _, player := range players {
		if player == nil {
			continue
		}
		entries = append(entries, PlayerEntry{ID: player.ID, Player: player})
	}

	return entries
}
