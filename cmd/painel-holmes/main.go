package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brkops/painel-holmes/internal/api"
	"github.com/brkops/painel-holmes/internal/config"
	"github.com/brkops/painel-holmes/internal/storage/sqlite"
	syncsvc "github.com/brkops/painel-holmes/internal/sync"
	"github.com/brkops/painel-holmes/internal/upstream"
	"github.com/brkops/painel-holmes/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Configuration loaded", logger.String("path", *configPath))

	db, err := sqlite.Open(cfg.Storage.DatabasePath)
	if err != nil {
		log.Error("Failed to open database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	recordStorage, err := sqlite.NewRecordStorage(db, log)
	if err != nil {
		log.Error("Failed to initialize record storage", logger.Error(err))
		os.Exit(1)
	}
	syncLogStorage, err := sqlite.NewSyncLogStorage(db, log)
	if err != nil {
		log.Error("Failed to initialize sync log storage", logger.Error(err))
		os.Exit(1)
	}

	upstreamClient := upstream.NewClient(
		cfg.Upstream.BaseURL,
		cfg.Upstream.Email,
		cfg.Upstream.Password,
		cfg.Upstream.Contratos,
		cfg.UpstreamTimeout(),
		log,
	)

	syncService := syncsvc.NewService(upstreamClient, recordStorage, syncLogStorage, cfg.UpstreamTimeout(), log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var scheduler *syncsvc.Scheduler
	if cfg.Sync.Enabled {
		scheduler = syncsvc.NewScheduler(ctx, syncService, cfg.SyncInterval(), log)
		scheduler.Start()
	} else {
		log.Info("Periodic sync is disabled")
	}

	router := api.NewRouter(recordStorage, syncService, cfg, log)
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router.Routes(),
	}

	go func() {
		log.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", logger.Error(err))
			cancel()
		}
	}()

	// Wait for shutdown signal or server failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", logger.String("signal", sig.String()))
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", logger.Error(err))
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	log.Info("Shutdown complete")
}
