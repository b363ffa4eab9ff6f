package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"
	_ "modernc.org/sqlite"

	"whatsapp-session-api/api"
	"whatsapp-session-api/config"
	"whatsapp-session-api/profile"
	"whatsapp-session-api/session"
	"whatsapp-session-api/utils"
	"whatsapp-session-api/whatsapp"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg := config.Load()
	log.Info().Int("port", cfg.Port).Str("profile_dir", cfg.ProfileDir).Msg("starting whatsapp session service")

	if err := profile.Ensure(cfg.ProfileDir); err != nil {
		log.Fatal().Err(err).Msg("failed to create profile directory")
	}
	lock, err := profile.Acquire(cfg.ProfileDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to acquire profile lock")
	}
	defer lock.Release()

	// The store can be transiently locked right after an unclean exit, so
	// opening it retries with backoff.
	var container *sqlstore.Container
	storeLog := waLog.Zerolog(log.With().Str("component", "store").Logger())
	err = utils.WithRetry(func() error {
		var err error
		container, err = sqlstore.New(context.Background(), "sqlite", cfg.DBDSN, storeLog)
		return err
	}, utils.StoreRetryConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session store")
	}
	defer container.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mirror := session.NewMirror(log)
	go mirror.Run(ctx)

	engine := whatsapp.NewEngine(ctx, container, mirror, cfg.ReconnectDelay, log)
	server := api.NewServer(mirror, engine, cfg.PublicDir, log)

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: server.Handler(),
	}

	// The listener opens before the engine connects: /health reports
	// ready:false during warm-up instead of refusing connections.
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("http listener started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http listener failed")
		}
	}()

	go func() {
		if err := engine.Initialize(ctx); err != nil {
			log.Error().Err(err).Msg("initial connect failed, retry scheduled")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	cancel()
	engine.Destroy()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
}
