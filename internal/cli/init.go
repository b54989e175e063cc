// Package cli holds the bootstrap steps shared by the burnrate commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"burnrate/internal/amqp"
	"burnrate/internal/categories"
	"burnrate/internal/config"
	applog "burnrate/internal/log"
)

// SetupLogger builds the text logger at the named level and installs it as
// the slog default. An unknown level falls back to info with a warning.
// A nil out means stdout.
func SetupLogger(level string, out io.Writer) *applog.Logger {
	lvl, err := applog.ParseLevel(level)
	cfg := applog.DefaultConfig()
	cfg.Level = lvl
	if out != nil {
		cfg.Output = out
	}
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info logging", applog.FieldError, err)
	}
	return logger
}

// LoadConfig reads .env when present, then the environment, and validates
// the result. A missing .env is ignored.
func LoadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ConnectAMQP dials RabbitMQ when configured. It returns nil, nil when
// AMQP is disabled.
func ConnectAMQP(ctx context.Context, logger *applog.Logger, cfg *config.Config) (*amqp.Client, error) {
	if !cfg.AMQPEnabled() {
		logger.DebugContext(ctx, "AMQP disabled, rule events will not be published")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("connect AMQP: %w", err)
	}
	logger.InfoContext(ctx, "Connected to AMQP", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, nil
}

// OpenStore creates the categories store from cfg and loads its document.
// notifier may be nil.
func OpenStore(ctx context.Context, logger *applog.Logger, cfg *config.Config, notifier categories.Notifier) (*categories.Store, error) {
	opts := []categories.Option{categories.WithStrictKeywords(cfg.StrictKeywords)}
	if notifier != nil {
		opts = append(opts, categories.WithNotifier(notifier))
	}
	store := categories.New(cfg.CategoriesFile, opts...)
	if err := store.Load(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to load categories", applog.FieldFile, cfg.CategoriesFile, applog.FieldError, err)
		return nil, err
	}
	return store, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
