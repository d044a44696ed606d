package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/vytor/boxhunt/internal/api"
	"github.com/vytor/boxhunt/internal/config"
	"github.com/vytor/boxhunt/internal/db"
	"github.com/vytor/boxhunt/internal/jobs"
	"github.com/vytor/boxhunt/internal/logger"
	"github.com/vytor/boxhunt/internal/repository/sqlite"
	"github.com/vytor/boxhunt/internal/services"
	"github.com/vytor/boxhunt/internal/widget"
	"github.com/vytor/boxhunt/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("BoxHunt Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("auto_search_workers=%d", cfg.AutoSearchWorkers)
	log.Debug("auto_search_queue_size=%d", cfg.AutoSearchQueueSize)
	log.Debug("box_counts classic=%d linear=%d binary=%d max=%d", cfg.ClassicBoxCount, cfg.LinearBoxCount, cfg.BinaryBoxCount, cfg.MaxBoxCount)
	log.Debug("step_delays linear=%s binary=%s", cfg.LinearStepDelay, cfg.BinaryStepDelay)
	log.Debug("cors_origins=%v", cfg.CORSOrigins)

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// Initialize worker pool
	autoSearchPool := worker.NewPool(cfg.AutoSearchWorkers, cfg.AutoSearchQueueSize)

	// Initialize services
	widgetService := services.NewWidgetService(
		sqlite.NewPlayRepository(database.DB),
		jobs.NewWorkerQueue(autoSearchPool),
		services.WidgetServiceConfig{
			Presets: widget.NewPresets(
				cfg.ClassicBoxCount,
				cfg.LinearBoxCount,
				cfg.BinaryBoxCount,
				cfg.LinearStepDelay,
				cfg.BinaryStepDelay,
			),
			MaxBoxCount: cfg.MaxBoxCount,
			Clock:       clockwork.NewRealClock(),
		},
	)

	srv := &api.Server{
		WidgetService: widgetService,
		DB:            database.DB,
		CORSOrigins:   cfg.CORSOrigins,
		WebSocket:     api.DefaultWebSocketConfig(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	autoSearchPool.Start(ctx)

	// Configure HTTP server. No write timeout: event streams are long-lived
	// and set their own deadlines.
	httpServer := &http.Server{
		Addr:        cfg.Addr,
		Handler:     srv.Routes(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Tear down widgets so runs stop and event streams end
	log.Debug("closing widgets")
	widgetService.Shutdown()

	// Cancel worker context
	log.Debug("stopping worker pool")
	cancel()

	// Shutdown HTTP server
	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Wait for workers to finish
	autoSearchPool.Stop()

	log.Info("===========================================")
	log.Info("BoxHunt Server Stopped")
	log.Info("===========================================")
}
