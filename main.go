// main.go
//
// Entry point for the lingo lesson server.
// Responsibilities:
//   - Load .env and configuration, set up zerolog.
//   - Load the lesson catalog, open + migrate SQLite.
//   - Connect the optional Redis snapshot store.
//   - Start the HTTP server and the attempt sweeper; shut both down on
//     SIGINT/SIGTERM.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/lingo/assets"
	"github.com/robalobadob/lingo/internal/auth"
	"github.com/robalobadob/lingo/internal/catalog"
	"github.com/robalobadob/lingo/internal/config"
	"github.com/robalobadob/lingo/internal/db"
	"github.com/robalobadob/lingo/internal/httpserver"
	"github.com/robalobadob/lingo/internal/progress"
	"github.com/robalobadob/lingo/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.Server.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	if cfg.Auth.JWTSecret == config.DevSecret {
		log.Warn().Msg("using development JWT secret")
	}

	cat, err := catalog.Load(cfg.Lessons.CatalogFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load lesson catalog")
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	sqlDB, err := db.Open(cfg.DB.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DB.Path).Msg("failed to open database")
	}
	defer sqlDB.Close()
	migrations, err := assets.Migrations()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read migrations")
	}
	if err := db.Migrate(initCtx, sqlDB, migrations); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	var snaps store.Snapshots
	if cfg.Redis.Addr != "" {
		rs, err := store.NewRedisSnapshots(initCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Lessons.AttemptTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rs.Close()
		snaps = rs
		log.Info().Str("addr", cfg.Redis.Addr).Msg("attempt snapshots enabled")
	}

	tokens := auth.NewManager(auth.Options{
		Secret:         cfg.Auth.JWTSecret,
		ExpiresDays:    cfg.Auth.JWTExpiresDays,
		CookieName:     cfg.Auth.CookieName,
		AnonCookieName: cfg.Auth.AnonCookieName,
		Secure:         cfg.Production(),
	})
	attempts := store.NewMemoryStore(cfg.Lessons.AttemptTTL)

	srv := httpserver.New(httpserver.Deps{
		Catalog:   cat,
		Attempts:  attempts,
		Snapshots: snaps,
		Progress:  progress.NewStore(sqlDB, cat),
		Auth:      auth.NewMiddleware(tokens, auth.NewUsers(sqlDB)),
	}, httpserver.Options{
		ClientOrigin:   cfg.Server.ClientOrigin,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxHearts:      cfg.Lessons.MaxHearts,
		DevMode:        cfg.Lessons.DevMode,
		DailySalt:      cfg.Lessons.DailySalt,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go attempts.RunSweeper(ctx, time.Minute, func(n int) {
		log.Debug().Int("removed", n).Msg("swept idle attempts")
	})

	httpServer := srv.HTTPServer(":" + strconv.Itoa(cfg.Server.Port))
	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Int("lessons", len(cat.Lessons())).
			Str("env", cfg.Server.Env).
			Msg("starting lingo server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	log.Info().Msg("lingo server stopped")
}
