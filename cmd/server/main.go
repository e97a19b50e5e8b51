package main

import (
	"chat-relay/queue"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/transport"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/rs/cors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer (database close, queue
// disconnect) executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Notification queue (producer side)
	notifications, err := queue.NewRedisQueue(ctx, config.RedisURL, config.NotificationsQueue, log)
	if err != nil {
		return fmt.Errorf("queue connection failed: %w", err)
	}
	defer func() {
		log.Info("Closing Redis queue...")
		_ = notifications.Close()
	}()

	// 5. Repositories & live room registry
	deps := runtime.RoomDeps{
		Messages:    repositories.NewMessageRepository(db, log, &config.HistoryWarmLimit),
		Profiles:    repositories.NewUserRepository(db, log),
		Friendships: repositories.NewFriendshipRepository(db, log),
		Queue:       notifications,
		AvatarBase:  config.AvatarBaseURL,
		QueueDelay:  config.QueueDelay,
		Log:         log,
	}
	registry := runtime.NewRegistry(deps, log)

	// 6. HTTP surface
	handler := transport.NewHandler(registry, config.AllowedOrigins, config.ConnectionBufferSize, log)
	httpHandler := cors.New(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(handler.Router())

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: httpHandler}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting websocket server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown was not clean", "error", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}
