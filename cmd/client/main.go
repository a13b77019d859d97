package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophwalk/internal/client/cli"
	"github.com/dmitrijs2005/gophwalk/internal/client/config"
	"github.com/dmitrijs2005/gophwalk/internal/logging"
	"github.com/dmitrijs2005/gophwalk/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(os.Stderr, "text", cfg.LogLevel).With("app", "gophwalk-client")

	shutdown, err := telemetry.Setup(ctx, "gophwalk-client")
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn(ctx, "telemetry shutdown", "err", err)
		}
	}()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "client stopped", "err", err)
		os.Exit(1)
	}
}
