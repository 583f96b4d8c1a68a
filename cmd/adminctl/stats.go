package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireAdmin(cmd.Context()); err != nil {
				return err
			}
			s, err := a.client.Dashboard(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Products\t%d\n", s.TotalProducts)
			fmt.Fprintf(w, "Orders\t%d\n", s.TotalOrders)
			fmt.Fprintf(w, "Users\t%d\n", s.TotalUsers)
			fmt.Fprintf(w, "Pending submissions\t%d\n", s.PendingSubmissions)
			fmt.Fprintf(w, "Low stock\t%d\n", s.LowStockProducts)
			fmt.Fprintf(w, "Revenue\t%s\n", s.TotalRevenue.StringFixed(2))

			statuses := make([]string, 0, len(s.OrdersByStatus))
			for st := range s.OrdersByStatus {
				statuses = append(statuses, st)
			}
			sort.Strings(statuses)
			for _, st := range statuses {
				fmt.Fprintf(w, "  %s\t%d\n", st, s.OrdersByStatus[st])
			}
			return w.Flush()
		},
	}
}
