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
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ChurnPredictor/internal/api/scoring"
	"github.com/Alias1177/ChurnPredictor/internal/config"
	"github.com/Alias1177/ChurnPredictor/internal/controller"
	"github.com/Alias1177/ChurnPredictor/internal/render"
	"github.com/Alias1177/ChurnPredictor/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	scorer := scoring.NewClient(scoring.ClientOptions{
		BaseURL:        cfg.ScoringBaseURL,
		RequestTimeout: cfg.Timeout(),
		RequestsPerSec: cfg.RequestsPerSec,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if wait := cfg.BackendWait(); wait > 0 {
		if err := scorer.WaitReady(ctx, wait); err != nil {
			log.Warn().Err(err).Msg("Starting without a reachable scoring service")
		}
	}

	store := web.NewSessionStore(func(a controller.Alerter) *controller.Controller {
		return controller.New(scorer, a)
	}, cfg.IdleTimeout())
	defer store.Stop()

	srv := web.NewServer(store, render.Options{
		HighRiskProbability: cfg.HighRiskProbability,
		VIPMonetary:         cfg.VIPMonetary,
	})

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("scoring_base_url", cfg.ScoringBaseURL).Msg("Serving churn prediction form")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("Error starting server")
		return
	case <-ctx.Done():
		log.Info().Msg("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server exited")
}
