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

	"github.com/gilchrisn/potts-community/pkg/api"
	"github.com/gilchrisn/potts-community/pkg/metrics"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := api.LoadServerConfig()
	log.Info().
		Str("address", cfg.Address).
		Str("config_file", cfg.ConfigFile).
		Dur("write_timeout", cfg.WriteTimeout).
		Int("max_nodes", cfg.Limits.MaxNodes).
		Int("max_iterations", cfg.Limits.MaxIterations).
		Msg("Configuration loaded")

	handlers := api.NewHandlers(cfg.ConfigFile, metrics.NewRegistry())
	handlers.SetLimits(cfg.Limits)

	server := &http.Server{
		Addr:         cfg.Address,
		Handler:      api.NewRouter(handlers),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		log.Info().Str("address", cfg.Address).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server shutdown complete")
}
