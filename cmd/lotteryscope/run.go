package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lotteryScope/internal/ingest"
	"lotteryScope/internal/server"
)

func runDaemon(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info("pipeline start",
		zap.String("rpc", a.cfg.RPCURL),
		zap.String("pot", a.cfg.PotAddress),
		zap.Duration("ingest_interval", a.cfg.IngestInterval),
		zap.Duration("sample_interval", a.cfg.SampleInterval),
		zap.Duration("price_interval", a.cfg.PriceInterval),
		zap.String("listen_addr", a.cfg.ListenAddr),
	)

	api := server.New(a.cache, a.store, a.sampler, a.logger)
	httpServer := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		a.loop(gctx, a.cfg.PriceInterval, "price refresh", a.updater.RunOnce)
		return nil
	})
	g.Go(func() error {
		a.loop(gctx, a.cfg.IngestInterval, "ingestion", a.ingestOnce)
		return nil
	})
	g.Go(func() error {
		a.loop(gctx, a.cfg.SampleInterval, "sampling", a.sampler.RunOnce)
		return nil
	})

	return g.Wait()
}

// loop runs fn immediately and then on every tick until the context ends.
// Failures are logged and the schedule keeps going.
func (a *app) loop(ctx context.Context, interval time.Duration, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil && ctx.Err() == nil {
		a.logger.Error(name+" failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				a.logger.Error(name+" failed", zap.Error(err))
			}
		}
	}
}

// ingestOnce runs a pass, treating an overlapping tick as a skip rather than
// a failure.
func (a *app) ingestOnce(ctx context.Context) error {
	err := a.runner.Run(ctx)
	if errors.Is(err, ingest.ErrAlreadyRunning) {
		a.logger.Debug("ingestion tick skipped, pass still running")
		return nil
	}
	return err
}
