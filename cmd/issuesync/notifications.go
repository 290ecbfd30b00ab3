package main

import (
	"github.com/spf13/cobra"

	"issuesync/internal/api"
	"issuesync/internal/config"
)

func newNotificationsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show recent notifications, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Notifications(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeStructured(resp)
				}
				for _, n := range resp.Notifications {
					if err := writePlain("%s\n", formatNotificationLine(n)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum notifications to show")
	return cmd
}
