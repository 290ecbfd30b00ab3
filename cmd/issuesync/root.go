package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"issuesync/internal/config"
	"issuesync/internal/format"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		jsonOutput bool
		yamlOutput bool
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "issuesync",
		Short:         "Issuesync keeps local tasks in step with GitHub issues",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			if yamlOutput {
				f, err := format.ByName("yaml")
				if err != nil {
					return err
				}
				outputFormatter = f
				jsonOutput = true
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().BoolVar(&yamlOutput, "yaml", false, "output YAML")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newInfoCmd(cfg, &jsonOutput),
		newConfigCmd(cfg),
		newProjectCmd(cfg, &jsonOutput),
		newProviderCmd(cfg, &jsonOutput),
		newContextCmd(cfg, &jsonOutput),
		newCreateCmd(cfg, &jsonOutput),
		newShowCmd(cfg, &jsonOutput),
		newListCmd(cfg, &jsonOutput),
		newRefreshCmd(cfg, &jsonOutput),
		newLabelCmd(cfg, &jsonOutput),
		newNotificationsCmd(cfg, &jsonOutput),
		newSyncCmd(cfg, &jsonOutput),
		newTokenCmd(),
	)

	return cmd
}
