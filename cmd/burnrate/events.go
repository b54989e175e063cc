package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"burnrate/internal/amqp"
	"burnrate/internal/cli"
	applog "burnrate/internal/log"
)

var errAMQPDisabled = errors.New("AMQP_URL is not set")

func newEventsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Print rule change events as they are published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cli.SignalContext(cmd.Context(), a.logger)
			defer cancel()

			if !a.cfg.AMQPEnabled() {
				return errAMQPDisabled
			}
			client, err := cli.ConnectAMQP(ctx, a.logger, a.cfg)
			if err != nil {
				return err
			}
			defer closeClient(a.logger, client)

			err = client.ConsumeRuleEvents(ctx, func(ctx context.Context, msg *amqp.RuleEventMessage) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), formatEvent(msg))
				return err
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("Event consumption failed", applog.FieldOperation, applog.OpConsume, applog.FieldError, err)
				return err
			}
			return nil
		},
	}
}

func formatEvent(msg *amqp.RuleEventMessage) string {
	line := fmt.Sprintf("%s %s %q", msg.Timestamp.Format(time.RFC3339), msg.Type, msg.Category)
	if msg.Keyword != "" {
		line += fmt.Sprintf(" %q", msg.Keyword)
	}
	return line
}
