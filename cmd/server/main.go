package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dzeya/mensor-construction-4/internal/app"
	"github.com/dzeya/mensor-construction-4/internal/config"
	"github.com/dzeya/mensor-construction-4/internal/logging"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting Mensor backend")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Resolve Secrets ────
	if err := app.LoadSecrets(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("loading secrets failed")
	}

	// ──── Step 3: Wire Backends and Routes ────
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	// ──── Step 4: Start Notification Workers ────
	if a.Workers != nil {
		a.Workers.Start(ctx)
		log.Info().Msg("lead notification workers started")
	}

	// ──── Step 5: Start HTTP Server ────
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     a.Handler,
		ReadTimeout: 15 * time.Second,
		// Streamed replies may run for the whole chat timeout.
		WriteTimeout: cfg.ChatTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		a.Hub.Shutdown()
		if a.Workers != nil {
			a.Workers.Stop()
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		a.Close()
		os.Exit(1)
	}
	log.Info().Msg("server exited")
}
