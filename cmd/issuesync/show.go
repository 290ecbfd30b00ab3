package main

import (
	"github.com/spf13/cobra"

	"issuesync/internal/api"
	"issuesync/internal/config"
	"issuesync/internal/models"
)

func newShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id> [<id>...]",
		Short: "Show task details",
		Args:  requireAtLeastOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				tasks := make([]models.Task, 0, len(args))
				for _, id := range args {
					task, err := client.GetTask(cmd.Context(), id)
					if err != nil {
						return err
					}
					tasks = append(tasks, task)
				}

				if len(tasks) == 1 {
					if *jsonOutput {
						return writeStructured(tasks[0])
					}
					return writeTaskDetail(tasks[0])
				}
				if *jsonOutput {
					return writeStructured(tasks)
				}
				return writeTaskList(tasks)
			})
		},
	}

	return cmd
}
