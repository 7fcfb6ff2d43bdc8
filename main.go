package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/ast-secret-be/internal/api"
	"github.com/isdelr/ast-secret-be/internal/clock"
	"github.com/isdelr/ast-secret-be/internal/config"
	"github.com/isdelr/ast-secret-be/internal/database"
	"github.com/isdelr/ast-secret-be/internal/logger"
	"github.com/isdelr/ast-secret-be/internal/middleware"
	"github.com/isdelr/ast-secret-be/internal/monitoring"
	"github.com/isdelr/ast-secret-be/internal/services"
	"github.com/isdelr/ast-secret-be/internal/store"
	"github.com/isdelr/ast-secret-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	// Set up storage
	var (
		st     store.Store
		clicks store.ClickStore
		db     *sql.DB
	)
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		db, err = database.New(cfg.DatabasePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply database migrations")
		}
		st = store.NewSQLite(db)
		clicks = store.NewSQLiteClicks(db)
	default:
		st = store.NewMemory()
		clicks = store.NewMemoryClicks()
	}
	log.Info().Str("driver", cfg.StoreDriver).Msg("Storage ready")

	clk := clock.Real()

	// Set up the event outbox and WebSocket Hub
	eventService := services.NewEventService(clk, services.DefaultOutboxSize)
	hub := websocket.NewHub(clicks)
	dispatcher := websocket.NewDispatcher(hub, eventService.Events(), cfg.ResetClicksOnExpiry)
	go dispatcher.Run()

	// Set up services
	userService := services.NewUserService(st, clk, eventService, services.UserOptions{
		ExpiryWindow:    cfg.ExpiryWindow(),
		PublicBaseURL:   cfg.PublicBaseURL,
		UniqueUsernames: cfg.UniqueUsernames,
	})
	messageService := services.NewMessageService(userService, eventService)

	// Set up and run the expiry reaper
	reaper, err := monitoring.NewReaper(userService, cfg.ReaperSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create expiry reaper")
	}
	go reaper.Run()

	var limiter *middleware.LimiterStore
	if cfg.RateLimitPerMinute > 0 {
		limiter = middleware.NewLimiterStore(cfg.RateLimitPerMinute, cfg.RateLimitBurst, 5*time.Minute)
	}

	// Set up router
	router := api.NewRouter(api.Deps{
		Users:         userService,
		Messages:      messageService,
		Hub:           hub,
		Limiter:       limiter,
		AllowedOrigin: cfg.AllowedOrigin,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Dur("expiry", cfg.ExpiryWindow()).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	reaper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Flush what the handlers emitted before exiting.
	eventService.Close()
	dispatcher.Wait()
	if limiter != nil {
		limiter.Stop()
	}

	log.Info().Msg("Server exiting")
}
