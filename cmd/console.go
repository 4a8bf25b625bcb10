package cmd

import (
	"github.com/bnema/mailctl/internal/adapters/editor/file"
	"github.com/bnema/mailctl/internal/tui"
	"github.com/spf13/cobra"
)

func newConsoleCmd(app *app) *cobra.Command {
	var htmlPath, designPath string

	cmd := &cobra.Command{
		Use:         "console",
		Short:       "Open the interactive operator console",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationInteractive: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps := tui.Deps{
				Registry:     app.registry,
				Detail:       app.detail,
				Catalog:      app.catalog,
				Orchestrator: app.orchestrator,
				Assistant:    app.assistant,
				Monitor:      app.monitor,
				Health:       app.healthFeed,
				Extract:      app.extract,
				NotebookURL:  app.cfg.Health.NotebookURL,
				Now:          app.now,
			}
			if htmlPath != "" {
				deps.Editor = file.New(htmlPath, designPath)
			}
			return tui.Run(cmd.Context(), deps)
		},
	}

	cmd.Flags().StringVar(&htmlPath, "html", "", "Editor HTML export file used by template save and the AI dialog")
	cmd.Flags().StringVar(&designPath, "design", "", "Editor design JSON file used by template save and load")
	return cmd
}
