package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/mailctl/internal/adapters/render/console"
	"github.com/bnema/mailctl/internal/application"
	"github.com/bnema/mailctl/internal/domain"
	"github.com/spf13/cobra"
)

func newWorkersCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workers",
		Aliases: []string{"worker", "containers"},
		Short:   "Manage mail worker containers",
	}

	cmd.AddCommand(
		newWorkersListCmd(app),
		newWorkersCreateCmd(app),
		newWorkersDeleteCmd(app),
		newWorkersInspectCmd(app),
		newWorkersLogsCmd(app),
		newWorkersSendCmd(app),
	)

	return cmd
}

func newWorkersListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List worker containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := perform(cmd, "Fetching workers...", asJSON, app.registry.Refresh)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, app.registry.List())
			}
			return writeWorkers(cmd, app, "")
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	return cmd
}

func newWorkersCreateCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a new worker container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := perform(cmd, "Creating worker...", false, app.orchestrator.Create); err != nil {
				return err
			}
			return writeWorkers(cmd, app, "Worker created.")
		},
	}
}

func newWorkersDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a worker container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.ResourceID(args[0])
			err := perform(cmd, "Deleting worker...", false, func(ctx context.Context) error {
				return app.orchestrator.Delete(ctx, id)
			})
			if err != nil {
				return err
			}
			return writeWorkers(cmd, app, fmt.Sprintf("Worker %s deleted.", id))
		},
	}
}

type inspectOutput struct {
	ResourceID    domain.ResourceID
	Filter        string
	Stats         *domain.StatsSnapshot
	MemoryPercent *float64 `json:",omitempty"`
	Logs          string
	Deliveries    []domain.DeliveryLogEntry
	Errors        []string `json:",omitempty"`
}

func newWorkersInspectCmd(app *app) *cobra.Command {
	var filterFlag string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <id>",
		Short: "Show a worker's stats, logs and delivery log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := domain.ParseLogFilter(filterFlag)
			if err != nil {
				return err
			}
			id := domain.ResourceID(args[0])

			var view application.DetailView
			err = perform(cmd, "Loading worker details...", asJSON, func(ctx context.Context) error {
				view = app.detail.Select(ctx, id)
				if filter != domain.LogFilterAll {
					view = app.detail.SetFilter(ctx, filter)
				}
				return nil
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, toInspectOutput(view))
			}
			rendered, err := console.RenderDetail(view, console.Options{Now: app.now(), Location: app.location})
			return writeRendered(cmd, rendered, err)
		},
	}

	cmd.Flags().StringVar(&filterFlag, "filter", "", "Log filter: all or error")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	return cmd
}

func toInspectOutput(view application.DetailView) inspectOutput {
	out := inspectOutput{
		ResourceID: view.ResourceID,
		Filter:     view.Filter.Label(),
		Stats:      view.Stats,
		Deliveries: view.Deliveries,
	}
	if view.Stats != nil {
		percent := view.Stats.MemoryPercent()
		out.MemoryPercent = &percent
	}
	if view.Logs != nil {
		out.Filter = view.Logs.Filter.Label()
		out.Logs = view.Logs.Text
	}
	for _, err := range []error{view.StatsErr, view.LogsErr, view.DeliveriesErr} {
		if err != nil {
			out.Errors = append(out.Errors, application.DescribeError(err))
		}
	}
	return out
}

func newWorkersLogsCmd(app *app) *cobra.Command {
	var filterFlag string

	cmd := &cobra.Command{
		Use:   "logs <id>",
		Short: "Print a worker's recent logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := domain.ParseLogFilter(filterFlag)
			if err != nil {
				return err
			}

			bundle, err := app.client.FetchLogs(cmd.Context(), domain.ResourceID(args[0]), filter)
			if err != nil {
				return describe(err)
			}

			text := strings.TrimRight(bundle.Text, "\n")
			if strings.TrimSpace(text) == "" {
				text = "No logs available."
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}

	cmd.Flags().StringVar(&filterFlag, "filter", "", "Log filter: all or error")
	return cmd
}

func newWorkersSendCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "send <id>",
		Short: "Trigger a send batch on a worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.ResourceID(args[0])

			var report domain.SendReport
			err := perform(cmd, "Sending batch...", asJSON, func(ctx context.Context) error {
				var err error
				report, err = app.orchestrator.SendBatch(ctx, id)
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, report)
			}
			rendered, err := console.RenderSendReport(report)
			return writeRendered(cmd, rendered, err)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	return cmd
}

func writeWorkers(cmd *cobra.Command, app *app, message string) error {
	if message != "" {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), message); err != nil {
			return err
		}
	}
	rendered, err := console.RenderWorkers(app.registry.Snapshot(), console.Options{
		Now:    app.now(),
		Cursor: -1,
	})
	return writeRendered(cmd, rendered, err)
}
