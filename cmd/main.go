package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chat-direct/api"
	"chat-direct/auth"
	"chat-direct/moderation"
	"chat-direct/observability"
	"chat-direct/repositories"
	"chat-direct/runtime"
	"chat-direct/runtime/workers"
	"chat-direct/search"
	"chat-direct/services"
	"chat-direct/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for HTTP and background workers.
func run() error {
	// 1. Configuration & Logger
	// .env is a development convenience; real deployments set the environment.
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB) & Search Index (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = writer.Close()
	}()

	// 3. Core components
	userRepository := repositories.NewUserRepository(db, log)
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	messageIndex := search.NewMessageIndex(writer, log)

	moderator, err := moderation.NewDefaultModerator(config.ModerationCharReplacement, log)
	if err != nil {
		return fmt.Errorf("moderator setup failed: %w", err)
	}

	tokens := auth.NewTokenManager(config.JWTSecret, config.TokenTTL)
	registry := runtime.NewRegistry()
	monitoring := observability.NewMonitoringManager(log)
	broadcaster := runtime.NewBroadcaster(registry, monitoring, log)
	pipeline := runtime.NewPipeline(messageRepository, messageIndex, registry, moderator, monitoring, log)

	authService := services.NewAuthService(userRepository, tokens)
	historyService := services.NewHistoryService(messageRepository, messageIndex)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewHeartbeatWorker(log, monitoring, config.HeartbeatInterval))
	supervisorDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supervisorDone)
	}()

	// 6. HTTP server (REST + WebSocket upgrade)
	wsHandler := ws.NewHandler(tokens, userRepository, registry, broadcaster, pipeline, monitoring, log, config.SessionBufferSize)
	apiHandler := api.NewHandler(authService, historyService, userRepository, config.SearchLimit, log)
	router := api.NewRouter(apiHandler, wsHandler, tokens)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:    address,
		Handler: router,
	}

	// Use an error channel to capture ListenAndServe() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown was not clean", "error", err)
	}
	sup.Stop()
	<-supervisorDone
	log.Info("Program stopped cleanly")

	return nil
}
