package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/spf13/cobra"
)

func upcomingCmd(a *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Show the next executions of active recurring payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			upcoming, err := a.client.Upcoming(cmd.Context(), days)
			if err != nil {
				return err
			}

			columns := []table.Column{
				{Title: "Date"},
				{Title: "Receiver"},
				{Title: "Amount"},
				{Title: "Information"},
			}
			rows := make([]table.Row, len(upcoming))
			for i, u := range upcoming {
				rows[i] = table.Row{
					u.Date,
					u.Payment.Receiver,
					formatMoney(u.Payment.Amount, u.Payment.Currency),
					u.Payment.Information,
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("upcoming payments (next %d days)", days)))
			if len(rows) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("nothing scheduled"))
				return nil
			}
			fmt.Fprintln(out, renderTable(columns, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "horizon in days")
	return cmd
}
