package cmd

import (
	"fmt"

	"github.com/bnema/mailctl/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *wireOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the mailctl config file",
	}

	cmd.AddCommand(newConfigInitCmd(opts))
	return cmd
}

func newConfigInitCmd(opts *wireOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a config file with the default settings",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipWire: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configPath
			if path == "" {
				path = envOrDefault("MAILCTL_CONFIG", "")
			}
			if path == "" {
				var err error
				if path, err = config.DefaultPath(); err != nil {
					return err
				}
			}

			if err := config.Write(path, config.Defaults(), force); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
