// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/audit"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/config"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/database"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/handler"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/logging"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Connect to PostgreSQL and migrate ──────────────────────────────
	pool, err := database.NewPool(ctx, cfg.DB)
	if err != nil {
		logging.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()
	logging.Info().Str("host", cfg.DB.Host).Str("db", cfg.DB.Name).Msg("connected to PostgreSQL")

	if err := database.Migrate(ctx, pool); err != nil {
		logging.Fatal().Err(err).Msg("migrate")
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	ledger := repository.NewLedger(pool)
	eventRepo := repository.NewEventRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool, ledger)
	activityRepo := repository.NewActivityRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	recorder := audit.NewRecorder(activityRepo)
	eventSvc := service.NewEventService(eventRepo, ledger, ticketRepo, recorder)
	ticketSvc := service.NewTicketService(ticketRepo, activityRepo, recorder)

	// ── 3. Build the router ───────────────────────────────────────────────
	router := handler.NewRouter(
		handler.RouterConfig{CORSOrigins: cfg.CORSOrigins, BookingRateLimit: cfg.BookingRateLimit},
		userRepo,
		handler.NewEventHandler(eventSvc),
		handler.NewTicketHandler(ticketSvc),
	)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logging.Error().Err(err).Msg("server error")
		stop()
		pool.Close()
		os.Exit(1)
	}

	logging.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	logging.Info().Msg("server stopped")
}
