package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/mailctl/internal/adapters/editor/file"
	"github.com/bnema/mailctl/internal/adapters/render/console"
	"github.com/bnema/mailctl/internal/domain"
	"github.com/spf13/cobra"
)

func newTemplatesCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template"},
		Short:   "Manage saved email templates",
	}

	cmd.AddCommand(
		newTemplatesListCmd(app),
		newTemplatesSaveCmd(app),
		newTemplatesLoadCmd(app),
		newTemplatesDuplicateCmd(app),
		newTemplatesDeleteCmd(app),
	)

	return cmd
}

func newTemplatesListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := perform(cmd, "Fetching templates...", asJSON, app.catalog.Refresh); err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, app.catalog.List())
			}
			return writeTemplates(cmd, app)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	return cmd
}

func newTemplatesSaveCmd(app *app) *cobra.Command {
	var name, htmlPath, designPath string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save the exported editor content as a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			editor := file.New(htmlPath, designPath)
			err := perform(cmd, "Saving template...", false, func(ctx context.Context) error {
				return app.orchestrator.SaveTemplate(ctx, name, editor)
			})
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Template %q saved.\n", name); err != nil {
				return err
			}
			return writeTemplates(cmd, app)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Template name")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Exported HTML file")
	cmd.Flags().StringVar(&designPath, "design", "", "Editor design JSON file")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("html")

	return cmd
}

func newTemplatesLoadCmd(app *app) *cobra.Command {
	var designOut string

	cmd := &cobra.Command{
		Use:   "load <id>",
		Short: "Write a saved template's design document for the editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			editor := file.New("", designOut)

			var tpl domain.Template
			err := perform(cmd, "Loading template...", false, func(ctx context.Context) error {
				if err := app.catalog.Refresh(ctx); err != nil {
					return err
				}
				var err error
				tpl, err = app.catalog.Load(ctx, domain.TemplateID(args[0]), editor)
				return err
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Template %q loaded into %s.\n", tpl.Name, designOut)
			return err
		},
	}

	cmd.Flags().StringVar(&designOut, "design-out", "", "File that receives the design JSON")
	_ = cmd.MarkFlagRequired("design-out")

	return cmd
}

func newTemplatesDuplicateCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Save a copy of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := perform(cmd, "Duplicating template...", false, func(ctx context.Context) error {
				if err := app.catalog.Refresh(ctx); err != nil {
					return err
				}
				return app.orchestrator.DuplicateTemplate(ctx, domain.TemplateID(args[0]))
			})
			if err != nil {
				return err
			}
			return writeTemplates(cmd, app)
		},
	}
}

func newTemplatesDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := perform(cmd, "Deleting template...", false, func(ctx context.Context) error {
				return app.orchestrator.DeleteTemplate(ctx, domain.TemplateID(args[0]))
			})
			if err != nil {
				return err
			}
			return writeTemplates(cmd, app)
		},
	}
}

func writeTemplates(cmd *cobra.Command, app *app) error {
	rendered, err := console.RenderTemplates(app.catalog.List(), "")
	return writeRendered(cmd, rendered, err)
}
