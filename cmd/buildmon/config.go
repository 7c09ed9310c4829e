package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newConfigCommand(opts *sourceOptions) *cobra.Command {
	var writePath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after applying the config file, BUILDMON_*
environment variables and flags. With --write, save it as a JSON config file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			if writePath != "" {
				if err := cfg.Save(writePath); err != nil {
					return WrapExitError(ExitCommandError, "error saving config", err)
				}
				cmd.PrintErrf("Config written to %s\n", writePath)
				return nil
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}

	cmd.Flags().StringVar(&writePath, "write", "", "save the effective configuration to this path")

	return cmd
}
