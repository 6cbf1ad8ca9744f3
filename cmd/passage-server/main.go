package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/evanmarcey/passage/internal/config"
	"github.com/evanmarcey/passage/internal/db"
	"github.com/evanmarcey/passage/internal/httpapi"
	"github.com/evanmarcey/passage/internal/logging"
	"github.com/evanmarcey/passage/internal/metrics"
	"github.com/evanmarcey/passage/internal/passage/service"
	sqlitestore "github.com/evanmarcey/passage/internal/passage/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", false).WithError(err).Fatal("load config")
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.JSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, db.Config{Path: cfg.DB.Path, Env: cfg.Env})
	if err != nil {
		logger.WithError(err).Fatal("open database")
	}
	defer database.Close()

	writer := db.NewWorker(database)
	defer writer.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, database, db.SeedDevOptions{
			Readers: cfg.SeedReaders,
			Badges:  cfg.SeedBadges,
		}); err != nil {
			logger.WithError(err).Fatal("seed dev data")
		}
	}

	// Stores
	runner := sqlitestore.NewRunner(writer)
	readerStore := sqlitestore.NewReaderStore(database, writer)
	badgeStore := sqlitestore.NewBadgeStore(database)
	activeStore := sqlitestore.NewActiveSessionStore(database)
	heartbeatStore := sqlitestore.NewHeartbeatStore(database, writer)

	// Metrics
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Services
	directory := service.NewReaderDirectory(readerStore)
	identity := service.NewIdentityResolver(badgeStore)
	engine := service.NewEngine(service.EngineDeps{
		Readers:  directory,
		Identity: identity,
		Runner:   runner,
		Policy:   service.TapPolicy{AllowExpiredExit: cfg.Tap.AllowExpiredExit},
		Logger:   logger,
		Metrics:  collector,
	})
	heartbeatSvc := service.NewHeartbeatService(heartbeatStore, directory)

	pruner := service.NewHeartbeatPruner(heartbeatStore, service.PrunerConfig{
		RetentionDays: cfg.Heartbeat.RetentionDays,
		IntervalHours: cfg.Heartbeat.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	limiter := httpapi.NewReaderRateLimiter(cfg.Tap.RateLimit, cfg.Tap.RateBurst)
	defer limiter.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:           logger,
		Addr:             cfg.HTTPAddr,
		Engine:           engine,
		HeartbeatService: heartbeatSvc,
		Presence:         activeStore,
		Gatherer:         registry,
		Collector:        collector,
		TapLimiter:       limiter,
	})

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("listening")
		if err := srv.Start(); err != nil {
			logger.WithError(err).Error("server stopped")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
