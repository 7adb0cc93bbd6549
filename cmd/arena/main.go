package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/bobblez1/blob2/internal/app"
	"github.com/bobblez1/blob2/internal/config"
	"github.com/bobblez1/blob2/internal/telemetry"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.Parse()

	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		zl.Warn().Err(err).Msg("failed to load .env")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		zl.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}
	cfg, err = cfg.ApplyEnv(os.Getenv)
	if err != nil {
		zl.Fatal().Err(err).Msg("invalid environment override")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, telemetry.WrapZerolog(zl, "arena")); err != nil {
		zl.Fatal().Err(err).Msg("arena stopped")
	}
}
