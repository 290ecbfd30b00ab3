package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"issuesync/internal/api"
	"issuesync/internal/config"
)

type createCmdOptions struct {
	project string
	status  string
	notes   string
	backlog bool
	labels  []string
}

func newCreateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	opts := &createCmdOptions{}
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a local task",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildCreateRequest(opts, args)
			if err != nil {
				return err
			}
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.CreateTask(cmd.Context(), req)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeStructured(resp)
				}
				return writePlain("%s\n", resp.ID)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.project, "project", "p", "", "project id")
	cmd.Flags().StringVarP(&opts.status, "status", "s", "", "initial status (open, in_progress, done)")
	cmd.Flags().StringVar(&opts.notes, "notes", "", "notes")
	cmd.Flags().BoolVar(&opts.backlog, "backlog", false, "put the task in the backlog")
	cmd.Flags().StringSliceVarP(&opts.labels, "label", "l", nil, "labels")
	return cmd
}

func buildCreateRequest(opts *createCmdOptions, args []string) (api.TaskCreateRequest, error) {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return api.TaskCreateRequest{}, errors.New("title is required")
	}
	if strings.TrimSpace(opts.project) == "" {
		return api.TaskCreateRequest{}, errors.New("--project is required")
	}

	req := api.TaskCreateRequest{
		ProjectID: opts.project,
		Title:     title,
		Backlog:   opts.backlog,
	}
	if opts.status != "" {
		req.Status = &opts.status
	}
	if opts.notes != "" {
		req.Notes = &opts.notes
	}
	if len(opts.labels) > 0 {
		req.Labels = opts.labels
	}
	return req, nil
}
