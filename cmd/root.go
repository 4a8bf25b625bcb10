package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

const (
	annotationSkipWire    = "mailctl/skip-wire"
	annotationInteractive = "mailctl/interactive"
)

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var opts wireOptions
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "mailctl",
		Short:         "mailctl: operate mail workers, templates and the AI assistant",
		Long:          "mailctl drives the mail-worker control API: list, create, inspect and delete worker containers, trigger send batches, manage email templates, ask the AI assistant for copy, and watch the remote runtime's health.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[annotationSkipWire] != "" {
				return nil
			}
			wireOpts := opts
			wireOpts.interactive = cmd.Annotations[annotationInteractive] != ""
			wired, err := wireApp(wireOpts)
			if err != nil {
				return err
			}
			*app = *wired
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if app.logger != nil {
				_ = app.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/mailctl/config.toml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(&opts),
		newWorkersCmd(app),
		newTemplatesCmd(app),
		newAICmd(app),
		newHealthCmd(app),
		newConsoleCmd(app),
	)

	return rootCmd
}
