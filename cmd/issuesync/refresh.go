package main

import (
	"github.com/spf13/cobra"

	"issuesync/internal/api"
	"issuesync/internal/config"
)

func newRefreshCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "refresh <id> [<id>...]",
		Short: "Refresh issue-backed tasks from GitHub",
		Args:  requireAtLeastOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				results := make([]api.RefreshResponse, 0, len(args))
				for _, id := range args {
					resp, err := client.RefreshTask(cmd.Context(), id, force)
					if err != nil {
						return err
					}
					results = append(results, resp)
				}
				if *jsonOutput {
					if len(results) == 1 {
						return writeStructured(results[0])
					}
					return writeStructured(results)
				}
				for _, result := range results {
					state := "unchanged"
					if result.Updated {
						state = "updated"
					}
					if err := writePlain("%s %s\n", result.Task.ID, state); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", true, "refresh even when the remote issue has not changed")
	return cmd
}
