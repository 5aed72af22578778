package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sqcb_dashboard/backend/internal/config"
	"github.com/sqcb_dashboard/backend/internal/db"
	httpapi "github.com/sqcb_dashboard/backend/internal/http"
	"github.com/sqcb_dashboard/backend/internal/service"
	"github.com/sqcb_dashboard/backend/internal/sqcbapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := log.Level(level).With().Str("service", "sqcb-dashboard").Logger()

	var upstream service.RecordSource
	switch {
	case cfg.FixturePath != "":
		upstream = sqcbapi.FileSource{Path: cfg.FixturePath}
		logger.Info().Str("path", cfg.FixturePath).Msg("using fixture record source")
	case cfg.SQCBAPIURL != "":
		upstream = sqcbapi.NewClient(cfg.SQCBAPIURL, cfg.SQCBAPITimeout)
	default:
		logger.Fatal().Msg("SQCB_API_URL or SQCB_FIXTURE_PATH must be set")
	}

	classifier := service.NewClassifier(cfg.WindowDays)
	deps := httpapi.Deps{Classifier: classifier}
	syncTimeout := cfg.SQCBAPITimeout + time.Minute

	var scheduler *cron.Cron
	ctx := context.Background()
	if cfg.HasStore() {
		store, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect db")
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate db")
		}

		deps.Store = store
		deps.Loader = service.NewLoader(store, cfg.CacheTTL, logger)
		deps.Sync = service.NewSyncService(upstream, store, deps.Loader, classifier, logger)

		if _, err := store.GetLatestRun(ctx); errors.Is(err, db.ErrNoRuns) {
			go func() {
				syncCtx, cancel := context.WithTimeout(context.Background(), syncTimeout)
				defer cancel()
				if _, err := deps.Sync.Sync(syncCtx); err != nil {
					logger.Warn().Err(err).Msg("initial sync failed")
				}
			}()
		}

		if cfg.SyncSchedule != "" {
			scheduler, err = deps.Sync.Schedule(cfg.SyncSchedule, syncTimeout)
			if err != nil {
				logger.Fatal().Err(err).Msg("failed to schedule sync")
			}
		}
	} else {
		deps.Loader = service.NewLoader(upstream, cfg.CacheTTL, logger)
		logger.Info().Msg("DATABASE_URL not set, reading upstream directly")
	}

	router := httpapi.Router(cfg, deps, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-ctxShutdown.Done():
		}
	}
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
