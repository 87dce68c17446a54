package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/clintharrison/go-ipydeps/pkg/logging"
)

func main() {
	logging.Init(os.Stderr, logging.FormatAuto, slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Debug("command failed", "error", err)
		os.Exit(1)
	}
}
