// Command server runs the marketplace HTTP API.
//
// Startup order matters: environment, logging, database, notifier, tracing,
// router, then the HTTP server with graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/workscout/go-marketplace-backend/internal/config"
	httpapi "github.com/workscout/go-marketplace-backend/internal/http"
	"github.com/workscout/go-marketplace-backend/internal/notify"
	"github.com/workscout/go-marketplace-backend/internal/observability"
	"github.com/workscout/go-marketplace-backend/internal/repo"
	"github.com/workscout/go-marketplace-backend/internal/sysutil"
)

// @title           Marketplace API
// @version         1.0
// @description     Telegram Mini App marketplace backend: orders, bids, contact reveal, reviews and moderation.
// @BasePath        /api/v1
func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	version := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), "dev")
	log.Info().Str("version", version).Str("auth_mode", cfg.AuthMode).Msg("starting")

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	// Deploy hook: migrate and exit without binding the port.
	if sysutil.IsTruthy(os.Getenv("MIGRATE_ONLY")) {
		log.Info().Msg("migrations applied, exiting (MIGRATE_ONLY)")
		return
	}

	if err := os.MkdirAll(cfg.Media.Dir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Media.Dir).Msg("create media dir")
	}

	notifier := notify.NewTelegram(cfg.Telegram)

	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}

	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, notifier, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown")
	}
	log.Info().Msg("stopped")
}
