package main

import (
	"net/url"

	"github.com/spf13/cobra"

	"issuesync/internal/api"
	"issuesync/internal/config"
)

func newListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		project   string
		label     string
		status    string
		issueType string
		backlog   bool
		active    bool
		limit     int
		offset    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks; defaults to the active context",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				query := url.Values{}
				setIfNotEmpty(query, "project", project)
				setIfNotEmpty(query, "label", label)
				setIfNotEmpty(query, "status", status)
				setIfNotEmpty(query, "issue_type", issueType)
				if cmd.Flags().Changed("backlog") {
					query.Set("backlog", "true")
				}
				if cmd.Flags().Changed("active") {
					query.Set("backlog", "false")
				}
				if limit > 0 {
					query.Set("limit", intToString(limit))
				}
				if offset > 0 {
					query.Set("offset", intToString(offset))
				}

				resp, err := client.ListTasks(cmd.Context(), query)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeStructured(resp)
				}
				return writeTaskList(resp)
			})
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "project filter")
	cmd.Flags().StringVar(&label, "label", "", "label filter")
	cmd.Flags().StringVar(&status, "status", "", "status filter (comma separated)")
	cmd.Flags().StringVar(&issueType, "issue-type", "", "issue type filter (github)")
	cmd.Flags().BoolVar(&backlog, "backlog", false, "only backlog tasks")
	cmd.Flags().BoolVar(&active, "active", false, "only tasks outside the backlog")
	cmd.Flags().IntVar(&limit, "limit", 0, "limit results")
	cmd.Flags().IntVar(&offset, "offset", 0, "offset results")
	cmd.MarkFlagsMutuallyExclusive("backlog", "active")

	return cmd
}
