package main

import (
	"github.com/spf13/cobra"

	"issuesync/internal/api"
	"issuesync/internal/config"
)

func newSyncCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Inspect or trigger GitHub polling",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show poll pipeline state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.SyncStatus(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeStructured(resp)
				}
				for _, p := range resp.Pipelines {
					if err := writePlain("%s\n", formatPipelineLine(p)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	triggerCmd := &cobra.Command{
		Use:   "trigger",
		Short: "Re-arm both pipelines now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.SyncTrigger(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeStructured(resp)
				}
				return writePlain("triggered\n")
			})
		},
	}

	syncCmd.AddCommand(statusCmd, triggerCmd)
	return syncCmd
}
