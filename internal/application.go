package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/arcadehq/tictactoe-backend/internal/config"
	"github.com/arcadehq/tictactoe-backend/internal/matchmaker"
	"github.com/arcadehq/tictactoe-backend/internal/registry"
	"github.com/arcadehq/tictactoe-backend/internal/repository"
	"github.com/arcadehq/tictactoe-backend/internal/repository/storage"
	"github.com/arcadehq/tictactoe-backend/internal/room"
	"github.com/arcadehq/tictactoe-backend/internal/service"
	"github.com/arcadehq/tictactoe-backend/internal/transport/rest"
	"github.com/arcadehq/tictactoe-backend/internal/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init sqlite storage: %w", err)
	}

	sessionRepo := repository.NewSessionRepository(redisStorage.Connection)
	userRepo := repository.NewUserRepository(sqliteStorage.Connection)

	authService := service.NewAuthService(conf.JWTSecretKey)
	userService := service.NewUserService(userRepo)
	statsService := service.NewStatsService(logger, userRepo)

	connRegistry := registry.New(logger, conf.Game.GraceDuration())

	roomConfig := room.Config{
		TurnDuration:     conf.Game.TurnDuration(),
		AnnounceDuration: conf.Game.AnnounceDuration(),
		IdleDuration:     conf.Game.IdleDuration(),
	}
	roomManager := room.NewManager(logger, roomConfig, connRegistry, sessionRepo, statsService)
	queue := matchmaker.New(logger, roomManager, connRegistry)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)

		authHandler := rest.NewAuth(logger, conf, authService, userService)
		statsHandler := rest.NewStats(logger, statsService, roomManager, queue)
		restServer := rest.New(logger, conf.SessionSecretKey, authHandler, statsHandler)

		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)

		wsServer := websocket.New(logger, queue, roomManager, connRegistry, authService, sessionRepo)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
