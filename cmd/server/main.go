package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophwalk/internal/logging"
	"github.com/dmitrijs2005/gophwalk/internal/server"
	"github.com/dmitrijs2005/gophwalk/internal/server/config"
	"github.com/dmitrijs2005/gophwalk/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(os.Stdout, "json", cfg.LogLevel).With("app", "gophwalk-server")

	shutdown, err := telemetry.Setup(ctx, "gophwalk-server")
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn(ctx, "telemetry shutdown", "err", err)
		}
	}()

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "err", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		os.Exit(1)
	}
}
