package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warp/budget-engine/client"
	"github.com/warp/budget-engine/generic"
)

func listCmd(a *app) *cobra.Command {
	var (
		page   int
		search string
	)

	cmd := &cobra.Command{
		Use:   "list <entity>",
		Short: "Print one page of an entity list",
		Long: `Print one page of categories, payment-methods, transactions, budgets or
recurring-payments. Pages are numbered from 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store := client.NewStore(a.client, generic.WithRowsPerPage(a.cfg.Client.RowsPerPage))

			view, err := viewFor(store, args[0])
			if err != nil {
				return err
			}

			if search = strings.TrimSpace(search); search != "" {
				if err := view.list.ApplyFilters(ctx, generic.Keyword(search)); err != nil {
					return err
				}
			}
			if page > 1 || search == "" {
				if err := view.list.GetPage(ctx, page-1, a.cfg.Client.RowsPerPage, nil); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(view.name))
			fmt.Fprintln(out, renderTable(view.columns, view.rows()))
			fmt.Fprintln(out, renderFooter(view))
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().StringVar(&search, "search", "", "keyword filter")
	return cmd
}
