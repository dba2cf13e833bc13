package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/desertthunder/wardrobe/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})
	app := newApp(runner)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := app.Run(ctx, os.Args)
	stop()

	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close database", "error", cerr)
	}

	switch {
	case err == nil:
	case errors.Is(err, shared.ErrLoginRequired):
		logger.Warn("login required", "hint", loginHint)
		os.Exit(2)
	case errors.Is(err, context.Canceled):
		logger.Warn("cancelled")
		os.Exit(130)
	default:
		logger.Fatalf("application error: %v", err)
	}
}
