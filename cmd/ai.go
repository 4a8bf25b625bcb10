package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/mailctl/internal/adapters/render/console"
	"github.com/bnema/mailctl/internal/application"
	"github.com/bnema/mailctl/internal/domain"
	"github.com/spf13/cobra"
)

func newAICmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "Ask the AI assistant to write or rework email copy",
	}

	cmd.AddCommand(
		newAIPresetsCmd(),
		newAIExtractCmd(app),
		newAIGenerateCmd(app),
	)

	return cmd
}

func newAIPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "presets",
		Short:       "List the prompt presets",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipWire: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			rendered, err := console.RenderPresets(application.Presets())
			return writeRendered(cmd, rendered, err)
		},
	}
}

func newAIExtractCmd(app *app) *cobra.Command {
	var htmlPath string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Print the prompt text extracted from exported template HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			markup, err := os.ReadFile(htmlPath)
			if err != nil {
				return fmt.Errorf("read template html: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), application.Extract(string(markup), app.extract))
			return err
		},
	}

	cmd.Flags().StringVar(&htmlPath, "html", "", "Exported HTML file")
	_ = cmd.MarkFlagRequired("html")
	return cmd
}

func newAIGenerateCmd(app *app) *cobra.Command {
	var preset, htmlPath, prompt string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Send a prompt to the AI assistant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			content, err := generateContent(app, htmlPath, prompt)
			if err != nil {
				return err
			}

			dialog := application.NewPromptDialog(content)
			if preset != "" {
				if err := dialog.SelectPreset(preset); err != nil {
					return err
				}
			}

			var result domain.AIResult
			err = perform(cmd, application.ThinkingNotice, asJSON, func(ctx context.Context) error {
				var err error
				result, err = app.assistant.Run(ctx, dialog)
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				state := dialog.State()
				return writeJSON(cmd, struct {
					Preset string
					Prompt string
					Result string
				}{state.Preset, state.Prompt, result.Text})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			return err
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Preset name (see 'mailctl ai presets')")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Exported HTML file to extract the content from")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Prompt text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	cmd.MarkFlagsMutuallyExclusive("html", "prompt")

	return cmd
}

func generateContent(app *app, htmlPath, prompt string) (string, error) {
	switch {
	case htmlPath != "":
		markup, err := os.ReadFile(htmlPath)
		if err != nil {
			return "", fmt.Errorf("read template html: %w", err)
		}
		return application.Extract(string(markup), app.extract), nil
	case strings.TrimSpace(prompt) != "":
		return prompt, nil
	default:
		return "", errors.New("one of --html or --prompt is required")
	}
}
