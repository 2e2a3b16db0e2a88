// Package main wires together the profile scraper service binary.
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

	"go.uber.org/zap"

	"profilescraper/internal/api"
	"profilescraper/internal/browser"
	"profilescraper/internal/clock/system"
	"profilescraper/internal/config"
	"profilescraper/internal/id/uuid"
	"profilescraper/internal/logging"
	"profilescraper/internal/metrics"
	"profilescraper/internal/scheduler"
	"profilescraper/internal/scraper"
	memorystorage "profilescraper/internal/storage/memory"
	pgstorage "profilescraper/internal/storage/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	clock := system.New()
	idGen := uuid.New()

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatal("init profile store failed", zap.Error(err))
	}
	defer closeStore()

	sessions := browser.NewManager(cfg.BrowserSettings(), logger)
	navigator := scraper.NewNavigator(cfg.NavigationSettings(), logger)
	extractor := scraper.NewExtractor(scraper.DefaultRules(), logger)
	orchestrator := scraper.NewOrchestrator(sessions, navigator, extractor, logger)

	sched := scheduler.New(orchestrator, scheduler.Config{
		RequestsPerMinute: cfg.Scheduler.RequestsPerMinute,
	}, clock, logger)
	go sched.Run(ctx)

	server := api.NewServer(store, sched, extractor, idGen, clock, cfg, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
}

func buildStore(ctx context.Context, cfg config.Config) (scraper.ProfileStore, func(), error) {
	switch cfg.Storage.Provider {
	case "postgres":
		store, err := pgstorage.NewProfileStore(ctx, pgstorage.ProfileStoreConfig{
			DSN:   cfg.Storage.DSN,
			Table: cfg.Storage.Table,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres store: %w", err)
		}
		return store, store.Close, nil
	case "memory":
		return memorystorage.NewProfileStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}
