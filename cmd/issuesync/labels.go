package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"issuesync/internal/api"
	"issuesync/internal/config"
)

type labelFunc func(client *api.Client, ctx context.Context, id string, req api.LabelsRequest) ([]string, error)

func newLabelCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	labelCmd := &cobra.Command{
		Use:   "label",
		Short: "Manage task labels",
	}

	addCmd := &cobra.Command{
		Use:   "add <id> [<id>...] <label>",
		Short: "Add a label",
		Args:  requireAtLeastArgs(2, "id(s) and label are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLabelChange(cmd, cfg, args, *jsonOutput, (*api.Client).AddLabels)
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <id> [<id>...] <label>",
		Short: "Remove a label",
		Args:  requireAtLeastArgs(2, "id(s) and label are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLabelChange(cmd, cfg, args, *jsonOutput, (*api.Client).RemoveLabels)
		},
	}

	labelCmd.AddCommand(addCmd, removeCmd)
	return labelCmd
}

func runLabelChange(cmd *cobra.Command, cfg *config.Config, args []string, jsonOutput bool, apply labelFunc) error {
	label := args[len(args)-1]
	ids := args[:len(args)-1]
	return withClient(cfg, func(client *api.Client) error {
		var last []string
		for _, id := range ids {
			labels, err := apply(client, cmd.Context(), id, api.LabelsRequest{Labels: []string{label}})
			if err != nil {
				return err
			}
			last = labels
		}
		if jsonOutput {
			return writeStructured(last)
		}
		return writePlain("%s\n", strings.Join(last, ","))
	})
}
