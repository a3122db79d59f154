package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"odai-party/internal/config"
	"odai-party/internal/content"
	"odai-party/internal/db"
	"odai-party/internal/logging"
	"odai-party/internal/server"
	"odai-party/internal/store"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	library := content.NewLibrary(cfg.ContentPath)
	if err := library.Load(); err != nil {
		log.Fatal().Err(err).Str("path", cfg.ContentPath).Msg("content load failed")
	}
	if library.Snapshot() == nil {
		log.Warn().Str("path", cfg.ContentPath).Msg("no content file; topic draws unavailable until imported")
	}

	var repo store.Repository = store.NewMemory()
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		repo = store.NewPostgres(conn)
		log.Info().Msg("using postgres storage")
	} else {
		log.Warn().Msg("DATABASE_URL not set; using in-memory storage")
	}

	srv := server.New(repo, library, cfg)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("scheduler start failed")
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("odai-party server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
