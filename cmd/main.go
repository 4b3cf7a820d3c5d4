package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tonielift/tonielift/internal/api/handlers"
	"github.com/tonielift/tonielift/internal/config"
	"github.com/tonielift/tonielift/internal/infrastructure/tonie"
	"github.com/tonielift/tonielift/internal/infrastructure/youtube"
	"github.com/tonielift/tonielift/pkg/ratelimit"
)

func main() {
	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Configuration is incomplete")
	}

	r := setupRouter(cfg)

	log.Info().Str("port", cfg.Port).Msg("Server starting")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal().Err(err).Msg("ListenAndServe error")
	}
}

func setupRouter(cfg *config.Config) *mux.Router {
	sessions := tonie.NewSessionProvider(cfg)
	api := tonie.NewClient(cfg)
	fetcher := youtube.NewFetcher()

	h := handlers.New(cfg, sessions, api, fetcher)
	limiter := ratelimit.NewLimiter(cfg.RateLimitWindow, cfg.RateLimitMaxHits)

	r := mux.NewRouter()
	handlers.RegisterRoutes(r, h, limiter)
	return r
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
