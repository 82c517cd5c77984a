// Leadbot - rental lead qualification bot server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/rentline/leadbot/internal/api"
	"github.com/rentline/leadbot/internal/bot"
	"github.com/rentline/leadbot/internal/chatws"
	"github.com/rentline/leadbot/internal/config"
	"github.com/rentline/leadbot/internal/reminder"
	"github.com/rentline/leadbot/internal/store"
	"github.com/rentline/leadbot/internal/telegram"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "telegram", cfg.TelegramToken != "", "reminder_delay", cfg.ReminderDelay)

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Optional Telegram transport. Without a token the websocket dev
	// chat is the only way in and leads go to the log.
	var tg *telegram.Client
	if cfg.TelegramToken != "" {
		tg, err = telegram.New(cfg.TelegramToken, cfg.LeadsChatID)
		if err != nil {
			slog.Error("Failed to initialize Telegram client", "error", err)
			os.Exit(1)
		}
		slog.Info("Telegram transport ready", "leads_chat_id", cfg.LeadsChatID)
	}

	var deliverer bot.Deliverer = bot.LogDeliverer{}
	var fallback bot.Sender
	if tg != nil {
		deliverer = tg
		fallback = tg
	}

	// The hub routes replies to a live websocket connection when one
	// exists, otherwise through Telegram.
	hub := chatws.NewHub(fallback)

	nudges := reminder.NewScheduler(cfg.ReminderDelay)
	defer nudges.Stop()

	dispatcher := bot.NewDispatcher(repo, hub, deliverer, nudges, bot.Options{
		AdminUserID:   cfg.AdminUserID,
		ReplyDelayMin: cfg.ReplyDelayMin,
		ReplyDelayMax: cfg.ReplyDelayMax,
	})

	healthHandler := api.NewHealthHandler(repo)
	wsHandler := chatws.NewHandler(hub, dispatcher)

	// Setup router.
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	healthHandler.RegisterHealth(r)
	r.Get("/ws/chat", wsHandler.ServeHTTP)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket chat sessions are long-lived
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if tg != nil {
		tg.SetDispatcher(dispatcher)
		go tg.Run(ctx)
		slog.Info("Telegram polling started")
	}

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
