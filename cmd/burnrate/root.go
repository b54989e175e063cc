package main

import (
	"context"

	"github.com/spf13/cobra"

	"burnrate/internal/amqp"
	"burnrate/internal/categories"
	"burnrate/internal/cli"
	"burnrate/internal/config"
	applog "burnrate/internal/log"
)

// app is the state shared by every subcommand once the root has loaded
// configuration.
type app struct {
	cfg        *config.Config
	logger     *applog.Logger
	categories string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:          "burnrate",
		Short:        "Categorize bank statements by keyword rules",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig()
			if err != nil {
				return err
			}
			if a.categories != "" {
				cfg.CategoriesFile = a.categories
			}
			a.cfg = cfg
			a.logger = cli.SetupLogger(cfg.LogLevel, cmd.ErrOrStderr()).WithComponent(applog.ComponentCLI)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&a.categories, "categories", "", "categories document (overrides CATEGORIES_FILE)")

	cmd.AddCommand(
		newServeCmd(a),
		newCategorizeCmd(a),
		newCategoriesCmd(a),
		newKeywordsCmd(a),
		newEventsCmd(a),
	)
	return cmd
}

// openStore loads the categories document. When AMQP is configured the
// store publishes its changes through the returned client; a broker that
// cannot be reached only costs the events. wrap, when set, decorates the
// client before the store sees it. The client may be nil and must be
// released with closeClient.
func (a *app) openStore(ctx context.Context, wrap func(categories.Notifier) categories.Notifier) (*categories.Store, *amqp.Client, error) {
	var notifier categories.Notifier
	client, err := cli.ConnectAMQP(ctx, a.logger, a.cfg)
	if err != nil {
		a.logger.WarnContext(ctx, "Rule events disabled", applog.FieldError, err)
	} else if client != nil {
		notifier = client
		if wrap != nil {
			notifier = wrap(client)
		}
	}

	store, err := cli.OpenStore(ctx, a.logger, a.cfg, notifier)
	if err != nil {
		closeClient(a.logger, client)
		return nil, nil, err
	}
	return store, client, nil
}

func closeClient(logger *applog.Logger, client *amqp.Client) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		logger.Warn("Failed to close AMQP connection", applog.FieldError, err)
	}
}
