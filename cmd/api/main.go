package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ludolog/ludolog/internal/auth"
	"github.com/ludolog/ludolog/internal/config"
	"github.com/ludolog/ludolog/internal/db"
	"github.com/ludolog/ludolog/internal/handlers"
)

func main() {
	// .env is optional outside development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		lg := zerolog.New(os.Stderr)
		lg.Fatal().Err(err).Msg("config")
	}

	log := newLogger(cfg)

	dbConn, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer dbConn.Close()

	if err := db.Migrate(dbConn); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	tokens := auth.NewTokenService(cfg.TokenSecret, cfg.Domain, cfg.TokenTTL)
	h := handlers.NewHandler(dbConn, log, tokens)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: h.Router(),
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func newLogger(cfg config.Config) zerolog.Logger {
	if cfg.LogFormat == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
