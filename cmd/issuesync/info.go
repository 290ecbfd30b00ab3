package main

import (
	"sort"

	"github.com/spf13/cobra"

	"issuesync/internal/api"
	"issuesync/internal/config"
)

func newInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show database and server info",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetInfo(cmd.Context())
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeStructured(resp)
				}

				_ = writePlain("db_path: %s\n", resp.DBPath)
				_ = writePlain("schema_version: %d\n", resp.SchemaVersion)
				_ = writePlain("projects: %d\n", resp.Projects)
				_ = writePlain("context: %s\n", formatContext(resp.ActiveContext))
				_ = writePlain("auth_required: %t\n", resp.AuthRequired)
				_ = writePlain("total_tasks: %d\n", resp.TotalTasks)

				statuses := make([]string, 0, len(resp.TaskCounts))
				for status := range resp.TaskCounts {
					statuses = append(statuses, status)
				}
				sort.Strings(statuses)
				for _, status := range statuses {
					_ = writePlain("  %s: %d\n", status, resp.TaskCounts[status])
				}
				return nil
			})
		},
	}
	return cmd
}
