package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"market-admin/pkg/adminclient"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow live changes to products, orders and submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.requireAdmin(ctx); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			live := adminclient.NewLiveSync(a.client, nil)
			live.OnEvent(func(ev *adminclient.ChangeEvent) {
				line := fmt.Sprintf("%s  %-6s %-16s %s", ev.CommitTimestamp.Local().Format(time.TimeOnly), ev.Type, ev.Table, ev.RecordID)
				if ev.OldStatus != "" && ev.Status != ev.OldStatus {
					line += fmt.Sprintf("  %s -> %s", ev.OldStatus, ev.Status)
				}
				fmt.Fprintln(out, line)
			})
			if err := live.Start(ctx); err != nil {
				fmt.Fprintln(out, adminclient.LabelOffline)
				return err
			}
			defer live.Stop()

			last := ""
			ticker := time.NewTicker(500 * time.Millisecond)
			defer ticker.Stop()
			for {
				if label := live.Status(); label != last {
					fmt.Fprintf(out, "[%s]\n", label)
					last = label
				}
				if live.ChannelStatus() == adminclient.ChannelError {
					return fmt.Errorf("subscription lost; run watch again to reconnect")
				}
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}
}
