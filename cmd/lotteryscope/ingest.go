package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	// Seed live USD quotes first so the pass prices plays with fresh data.
	// A failed refresh falls back to the configured seed prices.
	if err := a.updater.RunOnce(ctx); err != nil {
		a.logger.Warn("price refresh failed, using seed prices")
	}

	return a.runner.Run(ctx)
}
