package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"chat-relay/internal/auth"
	"chat-relay/internal/config"
	"chat-relay/internal/database"
	"chat-relay/internal/handlers"
	"chat-relay/internal/relay"
	"chat-relay/internal/services"
	"chat-relay/internal/session"
	"chat-relay/internal/websocket"
	"chat-relay/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}
	logger.SetGlobal(logger.New(os.Stdout, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	var messages database.MessageRepository = db
	if cfg.HistoryBackend == config.HistoryBackendBadger {
		store, err := database.OpenBadgerStore(cfg.BadgerPath)
		if err != nil {
			logger.Fatal("Failed to open history store at %s: %v", cfg.BadgerPath, err)
		}
		defer store.Close()
		messages = store
	}
	logger.Info("History backend: %s", cfg.HistoryBackend)

	// Initialize services
	authService := auth.NewService(db, []byte(cfg.JWTSecret), cfg.JWTExpiresIn)
	historyService := services.NewHistoryService(messages, cfg.FeedSize)

	registry := session.NewRegistry()
	hubManager := websocket.NewManager(registry)
	relayServer := relay.NewServer(registry, hubManager, historyService, relay.WithStoreTimeout(cfg.StoreTimeout))

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(authService)
	wsHandlers := handlers.NewWebSocketHandlers(ctx, authService, relayServer, handlers.WebSocketOptions{
		AllowedOrigins: cfg.Origins(),
		SendBufferSize: cfg.SendBufferSize,
		MaxMessageSize: cfg.MaxMessageSize,
	})

	mux := http.NewServeMux()
	setupRoutes(mux, authHandlers, wsHandlers)

	server := &http.Server{
		Addr:         cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("Server started on http://localhost%s", cfg.Port)
	logger.Info("WebSocket endpoint: ws://localhost%s/chat?token=<jwt>", cfg.Port)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error: %v", err)
	}
	if err := hubManager.Shutdown(cfg.ShutdownTimeout); err != nil {
		logger.Error("Hub shutdown error: %v", err)
	}
	logger.Info("Server stopped")
}

func setupRoutes(mux *http.ServeMux, authHandlers *handlers.AuthHandlers, wsHandlers *handlers.WebSocketHandlers) {
	mux.HandleFunc("/signup", authHandlers.Register)
	mux.HandleFunc("/login", authHandlers.Login)
	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/chat", wsHandlers.HandleWebSocket)
}
