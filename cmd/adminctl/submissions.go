package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSubmissionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "submissions",
		Aliases: []string{"subs"},
		Short:   "Review seller submissions",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, nil); err != nil {
				return err
			}
			return a.requireAdmin(cmd.Context())
		},
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subs, err := a.client.ListSubmissions(cmd.Context(), status)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tSELLER\tASKING\tSTATUS\tSUBMITTED")
			for _, s := range subs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.Title, s.SellerName,
					s.AskingPrice.StringFixed(2), s.Status, s.SubmittedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&status, "status", "pending", "pending, approved or rejected (empty for all)")

	var approveNotes string
	approve := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := a.client.ApproveSubmission(cmd.Context(), args[0], approveNotes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submission %s %s\n", sub.ID, sub.Status)
			return nil
		},
	}
	approve.Flags().StringVar(&approveNotes, "notes", "", "notes for the seller")

	var rejectNotes string
	reject := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rejectNotes == "" {
				return errors.New("--notes is required when rejecting")
			}
			sub, err := a.client.RejectSubmission(cmd.Context(), args[0], rejectNotes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submission %s %s\n", sub.ID, sub.Status)
			return nil
		},
	}
	reject.Flags().StringVar(&rejectNotes, "notes", "", "reason shown to the seller")

	cmd.AddCommand(list, approve, reject)
	return cmd
}
