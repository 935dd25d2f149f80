package websocket

import "encoding/json"

// Message is the envelope every socket frame carries: a named event and
// its payload.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client-to-server event names. These are the wire contract.
const (
	eventJoinMatchmaking = "join-matchmaking"
	eventMakeMove        = "make-move"
	eventRequestRematch  = "request-rematch"
	eventAcceptRematch   = "accept-rematch"
	eventReconnectGame   = "reconnect-game"
	eventLeaveGame       = "leave-game"
)

type joinMatchmakingPayload struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Token  string `json:"token,omitempty"`
}

// movePayload is the single-cell move intent. The server re-derives the
// resulting board itself; any client-computed board state in the payload
// is ignored.
type movePayload struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type makeMovePayload struct {
	RoomID string      `json:"roomId"`
	Move   movePayload `json:"move"`
	Token  string      `json:"token,omitempty"`
}

type roomRefPayload struct {
	RoomID string `json:"roomId"`
	Token  string `json:"token,omitempty"`
}

// reconnectPayload identifies the seat being reclaimed. A client that lost
// its room id may send its previous session id instead; the server then
// routes through the stored session binding.
type reconnectPayload struct {
	RoomID       string `json:"roomId,omitempty"`
	SessionID    string `json:"sessionId,omitempty"`
	PlayerSymbol string `json:"playerSymbol"`
	Token        string `json:"token,omitempty"`
}

type leavePayload struct {
	RoomID      string `json:"roomId"`
	Intentional bool   `json:"intentional"`
	Token       string `json:"token,omitempty"`
}

// parseRoomRef accepts both the object form {"roomId": "..."} and the bare
// string form the legacy client emits for rematch votes.
func parseRoomRef(data json.RawMessage) (roomRefPayload, error) {
	var ref roomRefPayload
	if err := json.Unmarshal(data, &ref); err == nil && ref.RoomID != "" {
		return ref, nil
	}

	var roomID string
	if err := json.Unmarshal(data, &roomID); err != nil {
		return roomRefPayload{}, err
	}

	return roomRefPayload{RoomID: roomID}, nil
}
