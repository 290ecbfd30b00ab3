package main

import (
	"github.com/spf13/cobra"

	"issuesync/internal/api"
	"issuesync/internal/config"
)

func newProjectCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				projects, err := client.ListProjects(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeStructured(projects)
				}
				for _, project := range projects {
					if err := writePlain("%s\n", formatProjectLine(project)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	var name string
	createCmd := &cobra.Command{
		Use:   "create <id>",
		Short: "Create a project",
		Args:  requireExactlyArgs(1, "project id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				project, err := client.CreateProject(cmd.Context(), api.ProjectCreateRequest{ID: args[0], Name: name})
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeStructured(project)
				}
				return writePlain("%s\n", project.ID)
			})
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "display name")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project",
		Args:  requireExactlyArgs(1, "project id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				project, err := client.GetProject(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeStructured(project)
				}
				return writePlain("%s\n", formatProjectLine(project))
			})
		},
	}

	projectCmd.AddCommand(listCmd, createCmd, showCmd)
	return projectCmd
}
