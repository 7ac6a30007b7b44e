package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-habit-backend/internal/config"
	httpapi "github.com/tbourn/go-habit-backend/internal/http"
	"github.com/tbourn/go-habit-backend/internal/observability"
	"github.com/tbourn/go-habit-backend/internal/repo"
	"github.com/tbourn/go-habit-backend/internal/services"
	"github.com/tbourn/go-habit-backend/internal/sysutil"
)

// purgeEvery is how often expired idempotency rows are swept.
const purgeEvery = 10 * time.Minute

// ServeCmd starts the API server and blocks until SIGINT/SIGTERM.
type ServeCmd struct {
	EnvFile string `help:"Optional .env file loaded before reading the environment." type:"path" env:"ENV_FILE"`
}

func (s *ServeCmd) Run() error {
	if err := config.LoadEnvFile(sysutil.FirstNonEmpty(s.EnvFile, ".env")); err != nil {
		return fmt.Errorf("env file: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logFile, err := sysutil.ConfigureLogging(sysutil.LogOptions{
		Level:     cfg.LogLevel,
		Pretty:    cfg.LogPretty,
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
	}, os.Stderr)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate ledger: %w", err)
	}
	go purgeLoop(ctx, db, purgeEvery)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	svc := services.NewHabitService(repo.NewHabitStore())
	httpapi.RegisterRoutes(r, svc, db, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("base_path", cfg.APIBasePath).
			Str("version", version).
			Msg("habitd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// purgeLoop deletes expired idempotency rows every interval until ctx ends.
func purgeLoop(ctx context.Context, db *gorm.DB, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("idempotency purge failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("rows", n).Msg("idempotency rows purged")
			}
		}
	}
}
