package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/recognizer/go/internal/config"
	"github.com/mcdev12/recognizer/go/internal/pairing"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	zerolog.SetGlobalLevel(cfg.Level())
	logger := log.Logger

	params, err := pairingParams(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read pairing link")
	}
	role := pairing.DetectRole(params)

	log.Info().
		Str("role", role.String()).
		Str("transport", cfg.Transport).
		Str("namespace", cfg.Namespace).
		Str("addr", cfg.ListenAddr).
		Msg("starting recognizer")

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	relay, err := setupTransport(cfg, &logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to relay")
	}
	defer relay.Close()

	services, err := setupServices(ctx, cfg, relay, role, params, &logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}
	defer services.Close()

	for _, svc := range services.Gateways {
		svc := svc
		go func() {
			if err := svc.Start(ctx); err != nil {
				log.Error().Err(err).Msg("gateway service failed")
			}
		}()
	}

	server := setupServer(cfg.ListenAddr, services.Handler)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("recognizer shutdown complete")
}
