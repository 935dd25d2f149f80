package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/arcadehq/tictactoe-backend/internal/entity"
	"github.com/arcadehq/tictactoe-backend/internal/matchmaker"
	"github.com/arcadehq/tictactoe-backend/internal/pkg"
	"github.com/arcadehq/tictactoe-backend/internal/registry"
	"github.com/arcadehq/tictactoe-backend/internal/room"
)

const shutdownTimeout = 5 * time.Second

// tokenVerifier resolves a proof token to a stable user id.
type tokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// sessionStore is the slice of the shared session mirror the socket server
// reads to route reconnecting clients back to their room.
type sessionStore interface {
	LookupPlayer(ctx context.Context, identity string) (string, error)
	GetRoom(ctx context.Context, id string) (*entity.RoomSnapshot, error)
	DeleteRoom(ctx context.Context, id string) error
}

// client is one live socket connection. It is the room.Sender for the
// transport identity it carries; the mutex serializes writes because both
// the room goroutine and the read loop may send.
type client struct {
	id   string
	conn *gorilla.Conn

	mu sync.Mutex

	userID string
	name   string
	avatar string
}

func (that *client) Send(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if err = that.conn.WriteJSON(Message{Event: event, Data: raw}); err != nil {
		return fmt.Errorf("failed to write %s: %w", event, err)
	}

	return nil
}

func (that *client) sendError(message string) {
	_ = that.Send(room.EventError, message)
}

type Server struct {
	logger     *slog.Logger
	upgrader   gorilla.Upgrader
	matchmaker *matchmaker.Matchmaker
	rooms      *room.Manager
	registry   *registry.Registry
	auth       tokenVerifier
	sessions   sessionStore
	handlers   map[string]func(ctx context.Context, c *client, data json.RawMessage) error
}

func New(logger *slog.Logger, mm *matchmaker.Matchmaker, rooms *room.Manager, reg *registry.Registry, auth tokenVerifier, sessions sessionStore) *Server {
	server := &Server{
		logger: logger,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		matchmaker: mm,
		rooms:      rooms,
		registry:   reg,
		auth:       auth,
		sessions:   sessions,
		handlers:   make(map[string]func(context.Context, *client, json.RawMessage) error),
	}

	server.handlers[eventJoinMatchmaking] = server.handleJoinMatchmaking
	server.handlers[eventMakeMove] = server.handleMakeMove
	server.handlers[eventRequestRematch] = server.handleRematchVote
	server.handlers[eventAcceptRematch] = server.handleRematchVote
	server.handlers[eventReconnectGame] = server.handleReconnect
	server.handlers[eventLeaveGame] = server.handleLeave

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	newClient := &client{
		id:   pkg.GenerateNewSessionID(),
		conn: conn,
	}

	log.Info("WebSocket connection established", "identity", newClient.id)

	that.handleMessages(ctx, newClient)
}

// handleMessages - processes messages from the client until the socket
// drops, then hands the identity over to the matchmaker and the registry
// for cleanup.
func (that *Server) handleMessages(ctx context.Context, c *client) {
	log := that.logger.With("method", "handleMessages", "identity", c.id)

	defer func() {
		_ = c.conn.Close()

		that.matchmaker.Remove(c.id)
		that.registry.Disconnect(c.id)

		log.Info("WebSocket connection closed")
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if gorilla.IsUnexpectedCloseError(err, gorilla.CloseNormalClosure, gorilla.CloseGoingAway) {
				log.Error("error reading message", "error", err)
			}

			return
		}

		var msg Message
		if err = json.Unmarshal(raw, &msg); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[msg.Event]
		if !ok {
			log.Error("unknown event", "event", msg.Event)
			c.sendError("unknown event: " + msg.Event)

			continue
		}

		if err = handler(ctx, c, msg.Data); err != nil {
			log.Error("error processing message", "event", msg.Event, "error", err)
			c.sendError(err.Error())
		}
	}
}
