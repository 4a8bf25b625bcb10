package cmd

import (
	"fmt"

	"github.com/bnema/mailctl/internal/adapters/render/console"
	"github.com/bnema/mailctl/internal/domain"
	"github.com/spf13/cobra"
)

func newHealthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the remote AI runtime",
	}

	cmd.AddCommand(
		newHealthCheckCmd(app),
		newHealthWatchCmd(app),
	)

	return cmd
}

func newHealthCheckCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Probe the runtime once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status := app.monitor.CheckNow(cmd.Context())
			return writeHealth(cmd, app, status)
		},
	}
}

func newHealthWatchCmd(app *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the runtime and print every status change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 0 {
				return fmt.Errorf("--count must not be negative")
			}

			ctx := cmd.Context()
			app.monitor.Start(ctx)
			defer app.monitor.Stop()

			for seen := 0; count == 0 || seen < count; seen++ {
				select {
				case <-ctx.Done():
					return nil
				case status := <-app.healthFeed.Updates():
					if err := writeHealth(cmd, app, status); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many status changes (0: until interrupted)")
	return cmd
}

func writeHealth(cmd *cobra.Command, app *app, status domain.HealthStatus) error {
	rendered, err := console.RenderHealth(status, app.cfg.Health.NotebookURL)
	return writeRendered(cmd, rendered, err)
}
