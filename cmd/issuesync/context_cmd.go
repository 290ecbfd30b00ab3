package main

import (
	"github.com/spf13/cobra"

	"issuesync/internal/api"
	"issuesync/internal/config"
	"issuesync/internal/models"
)

func newContextCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	contextCmd := &cobra.Command{
		Use:   "context",
		Short: "Show or switch the active work context",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the active context",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				wc, err := client.GetContext(cmd.Context())
				if err != nil {
					return err
				}
				return writeContext(wc, *jsonOutput)
			})
		},
	}

	projectCmd := &cobra.Command{
		Use:   "project <id>",
		Short: "Work in a project",
		Args:  requireExactlyArgs(1, "project id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setContext(cmd, cfg, models.ContextProject, args[0], *jsonOutput)
		},
	}

	tagCmd := &cobra.Command{
		Use:   "tag <label>",
		Short: "Work across projects on a tag",
		Args:  requireExactlyArgs(1, "tag is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setContext(cmd, cfg, models.ContextTag, args[0], *jsonOutput)
		},
	}

	contextCmd.AddCommand(showCmd, projectCmd, tagCmd)
	return contextCmd
}

func setContext(cmd *cobra.Command, cfg *config.Config, kind models.WorkContextType, id string, jsonOutput bool) error {
	return withClient(cfg, func(client *api.Client) error {
		wc, err := client.SetContext(cmd.Context(), api.ContextRequest{Type: string(kind), ID: id})
		if err != nil {
			return err
		}
		return writeContext(wc, jsonOutput)
	})
}

func writeContext(wc models.WorkContext, jsonOutput bool) error {
	if jsonOutput {
		return writeStructured(wc)
	}
	return writePlain("%s\n", formatContext(wc))
}
