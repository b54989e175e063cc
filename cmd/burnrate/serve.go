package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"burnrate/internal/cache"
	"burnrate/internal/categories"
	"burnrate/internal/cli"
	apphttp "burnrate/internal/http"
	applog "burnrate/internal/log"
	"burnrate/internal/middleware/ratelimit"
	"burnrate/internal/worker"
)

const (
	cleanupInterval = time.Minute
	shutdownTimeout = 30 * time.Second
	eventBuffer     = 256
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	ctx, cancel := cli.SignalContext(parent, a.logger)
	defer cancel()

	// Requests hold the server lock while the store notifies, so events
	// leave through a buffer.
	var events *categories.AsyncNotifier
	store, client, err := a.openStore(ctx, func(n categories.Notifier) categories.Notifier {
		events = categories.NewAsyncNotifier(n, eventBuffer)
		return events
	})
	if err != nil {
		return err
	}
	defer closeClient(a.logger, client)

	sessions := cache.NewLRU[apphttp.Statement](a.cfg.SessionMax, a.cfg.SessionTTL)
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: a.cfg.RateLimitPerMinute})

	srv := apphttp.NewServer(":"+a.cfg.Port, store, sessions,
		apphttp.WithMaxUpload(a.cfg.MaxUploadBytes),
		apphttp.WithRateLimiter(limiter),
		apphttp.WithLogger(a.logger.WithComponent(applog.ComponentHTTP)),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Starting burnrate server",
			"port", a.cfg.Port,
			applog.FieldFile, a.cfg.CategoriesFile,
			"categories", len(store.Categories()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", a.cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		return cache.NewManager(sessions, limiter).Run(gctx, cleanupInterval)
	})
	if events != nil {
		g.Go(func() error { return events.Run(gctx) })
	}
	if client != nil {
		reloader := worker.NewReloadWorker(store)
		g.Go(func() error {
			err := client.ConsumeRuleEvents(gctx, reloader.HandleRuleEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				// Serving continues with the rules already loaded.
				a.logger.Warn("Rule event consumption stopped", applog.FieldOperation, applog.OpConsume, applog.FieldError, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("Server error", applog.FieldError, err)
		return err
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}
