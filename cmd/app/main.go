package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"desathor/internal/adapters/cli"
	"desathor/internal/app"
	"desathor/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Log)
	// Keep stdout for reports; logs go to stderr in the terminal tools.
	logger.SetOutput(os.Stderr)

	svc, _, err := app.NewFromConfig(cfg, logger)
	if err != nil {
		config.LogError(logger, "main", "main", "startup", nil, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand(svc, os.Stdin).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
