package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/noah-isme/toko-kasir/internal/app"
	"github.com/noah-isme/toko-kasir/internal/config"
	"github.com/noah-isme/toko-kasir/internal/obs"
	"github.com/noah-isme/toko-kasir/internal/terminal"
)

func main() {
	prompt := flag.String("prompt", "kasir> ", "prompt shown before each command")
	logLevel := flag.String("log-level", "warn", "log level for the stderr log")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := obs.NewLoggerTo(os.Stderr, "console", *logLevel).With().Str("env", cfg.AppEnv).Logger()

	reg, err := app.NewRegister(cfg, app.NewBus(logger, nil))
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise register")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := &terminal.Session{
		Register: reg,
		In:       os.Stdin,
		Out:      os.Stdout,
		Logger:   logger,
		Prompt:   *prompt,
	}
	if err := session.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("register session ended")
		os.Exit(1)
	}
}
