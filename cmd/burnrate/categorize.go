package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"burnrate/internal/categorizer"
	"burnrate/internal/core"
	applog "burnrate/internal/log"
	"burnrate/internal/statement"
	"burnrate/internal/summary"
)

type categorizeOptions struct {
	direction   string
	summaryOnly bool
}

func newCategorizeCmd(a *app) *cobra.Command {
	var opts categorizeOptions
	cmd := &cobra.Command{
		Use:   "categorize <statement.csv>",
		Short: "Categorize a statement and print its rows and summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.categorize(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.direction, "direction", "d", "", "only Debit or Credit rows")
	cmd.Flags().BoolVarP(&opts.summaryOnly, "summary", "s", false, "print only the summary")
	return cmd
}

func (a *app) categorize(cmd *cobra.Command, path string, opts categorizeOptions) error {
	ctx := cmd.Context()

	var dir core.Direction
	if opts.direction != "" {
		d, err := core.ParseDirection(opts.direction)
		if err != nil {
			return err
		}
		dir = d
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	txs, err := statement.Load(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	store, client, err := a.openStore(ctx, nil)
	if err != nil {
		return err
	}
	defer closeClient(a.logger, client)

	txs = categorizer.Categorize(txs, store.Rules())
	a.logger.DebugContext(ctx, "Statement categorized",
		applog.NewFields().WithOperation(applog.OpCategorize).WithStatement(path, len(txs)).ToSlice()...)

	if dir != "" {
		txs = summary.Filter(txs, dir)
	}

	out := cmd.OutOrStdout()
	if !opts.summaryOnly {
		if err := printRows(out, txs); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return printSummary(out, txs)
}

func printRows(w io.Writer, txs []core.Transaction) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tDetails\tAmount\tDirection\tCategory")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			tx.Date.Format(core.DateLayout), tx.Details, core.FormatAmount(tx.Amount), tx.Direction, tx.Category)
	}
	return tw.Flush()
}

func printSummary(w io.Writer, txs []core.Transaction) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Category\tAmount\tCount\tShare")
	rows := summary.Summarize(txs)
	for i, share := range summary.Breakdown(rows) {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s%%\n",
			share.Category, core.FormatAmount(share.Amount), rows[i].Count, share.Percent.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nDebit %s  Credit %s  Balance %s\n",
		core.FormatAmount(summary.TotalByDirection(txs, core.Debit)),
		core.FormatAmount(summary.TotalByDirection(txs, core.Credit)),
		core.FormatAmount(summary.Balance(txs)))
	return nil
}
