package main

import (
	"github.com/spf13/cobra"

	"issuesync/internal/api"
	"issuesync/internal/config"
)

type providerSetOptions struct {
	repo       string
	disabled   bool
	noAutoAdd  bool
	noAutoPoll bool
}

func newProviderCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	providerCmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage a project's GitHub provider",
	}

	showCmd := &cobra.Command{
		Use:   "show <project>",
		Short: "Show provider settings",
		Args:  requireExactlyArgs(1, "project id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				provider, err := client.GetProvider(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeStructured(provider)
				}
				return writeProvider(provider)
			})
		},
	}

	opts := &providerSetOptions{}
	setCmd := &cobra.Command{
		Use:   "set <project>",
		Short: "Replace provider settings",
		Args:  requireExactlyArgs(1, "project id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				provider, err := client.SetProvider(cmd.Context(), args[0], buildProviderRequest(opts))
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeStructured(provider)
				}
				return writeProvider(provider)
			})
		},
	}
	setCmd.Flags().StringVar(&opts.repo, "repo", "", "GitHub repository as owner/name")
	setCmd.Flags().BoolVar(&opts.disabled, "disable", false, "disable the provider")
	setCmd.Flags().BoolVar(&opts.noAutoAdd, "no-auto-add", false, "do not import new issues into the backlog")
	setCmd.Flags().BoolVar(&opts.noAutoPoll, "no-auto-poll", false, "do not refresh linked tasks automatically")

	providerCmd.AddCommand(showCmd, setCmd)
	return providerCmd
}

func buildProviderRequest(opts *providerSetOptions) api.ProviderConfigRequest {
	return api.ProviderConfigRequest{
		Enabled:          !opts.disabled,
		AutoAddToBacklog: !opts.noAutoAdd,
		AutoPoll:         !opts.noAutoPoll,
		Repo:             opts.repo,
	}
}
