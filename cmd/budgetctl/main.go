/*
budgetctl - Terminal client for the budget engine API

PURPOSE:
  Lists and browses budgeting entities page by page against a running
  server, using the same entity list state machine as the web frontend.

COMMANDS:
  list <entity> [--page N] [--search kw]   Print one page as a table
  browse <entity>                          Interactive pager (n/p, /, r, q)
  upcoming [--days N]                      Next recurring payment executions

  <entity> is one of: categories, payment-methods, transactions, budgets,
  recurring-payments

GLOBAL FLAGS:
  --config      Config file (default: ./budget.yaml)
  --server      API base URL (client.base_url)
  --rows        Rows per page (client.rows_per_page)
  --log-level   debug, info, warn, error (logging.level)

SEE ALSO:
  - client/store.go: Entity lists backed by the REST API
  - config/config.go: Configuration keys
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/warp/budget-engine/client"
	"github.com/warp/budget-engine/config"
)

// app is the state shared by all subcommands, built in PersistentPreRunE.
type app struct {
	cfgFile string
	cfg     config.Config
	client  *client.Client
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Browse budgets, transactions and subscriptions from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./budget.yaml)")
	root.PersistentFlags().String("server", "", "API base URL (default: http://localhost:8080)")
	root.PersistentFlags().Int("rows", 0, "rows per page (default: 8)")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(listCmd(a))
	root.AddCommand(browseCmd(a))
	root.AddCommand(upcomingCmd(a))

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	v, err := config.NewViper(a.cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Root().PersistentFlags()
	_ = v.BindPFlag("client.base_url", flags.Lookup("server"))
	_ = v.BindPFlag("client.rows_per_page", flags.Lookup("rows"))
	_ = v.BindPFlag("logging.level", flags.Lookup("log-level"))

	if a.cfg, err = config.FromViper(v); err != nil {
		return err
	}

	logger, err := config.SetupLogger(a.cfg.Logging)
	if err != nil {
		return err
	}

	a.client, err = client.New(a.cfg.Client.BaseURL,
		client.WithTimeout(a.cfg.Client.Timeout),
		client.WithRateLimit(a.cfg.Client.RateLimit),
		client.WithLogger(logger),
	)
	return err
}
