package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stockengine/internal/app"
	"stockengine/internal/config"
	"stockengine/internal/logger"
	"stockengine/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.GoEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	e := server.New(cfg, a, log)
	return server.Run(ctx, e, cfg.Addr(), log)
}
