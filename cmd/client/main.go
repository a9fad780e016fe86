package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/qryptovault/internal/client/cli"
	"github.com/dmitrijs2005/qryptovault/internal/client/config"
	"github.com/dmitrijs2005/qryptovault/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "qryptovault: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogBackend, cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}
	if s, ok := log.(interface{ Sync() error }); ok {
		defer func() { _ = s.Sync() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
