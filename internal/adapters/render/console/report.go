package console

import (
	"fmt"
	"strings"

	"github.com/bnema/mailctl/internal/application"
	"github.com/bnema/mailctl/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

func SendReportView(s Styles, report domain.SendReport) string {
	lines := []string{
		s.Title.Render(fmt.Sprintf("Send report for %s", report.ResourceID)),
		keyValue(s, "Emails Sent", report.SentInBatchLabel()),
		keyValue(s, "Total Sent", report.TotalSentLabel()),
		s.Key.Render("Output:"),
	}
	output := strings.TrimRight(report.Output, "\n")
	if output == "" {
		output = s.Empty.Render("(no output)")
	}
	lines = append(lines, output)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func TemplatesView(s Styles, templates []domain.Template, selected domain.TemplateID) string {
	lines := []string{
		s.Title.Render("Email Templates"),
		s.Header.Render(fmt.Sprintf("templates: %d", len(templates))),
	}
	if len(templates) == 0 {
		lines = append(lines, s.Section.Render(s.Empty.Render("No saved templates yet.")))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	rows := make([][]string, 0, len(templates))
	cursor := -1
	for i, tpl := range templates {
		if tpl.ID == selected {
			cursor = i
		}
		rows = append(rows, []string{string(tpl.ID), tpl.Name})
	}
	lines = append(lines, s.Section.Render(renderTable(s, []string{"ID", "Name"}, rows, cursor)))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func PresetsView(s Styles, presets []application.Preset) string {
	lines := []string{s.Title.Render("AI presets")}
	for i, p := range presets {
		lines = append(lines, fmt.Sprintf("%2d. %s  %s", i+1, s.Key.Render(p.Name), s.Neutral.Render(p.Instruction)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// AIView shows a dialog's prompt and outcome. spinner is drawn next to the
// busy notice while a run is in flight.
func AIView(s Styles, state application.DialogState, spinner string) string {
	preset := state.Preset
	if preset == "" {
		preset = "-- none --"
	}

	lines := []string{
		s.Title.Render("AI Assistant"),
		keyValue(s, "Preset", preset),
		s.Key.Render("Prompt:"),
		s.Box.Render(state.Prompt),
	}

	switch {
	case state.Running:
		lines = append(lines, strings.TrimSpace(spinner+" "+application.ThinkingNotice))
	case state.Err != nil:
		lines = append(lines, s.Error.Render("❌ "+application.DescribeError(state.Err)))
	case state.Result != nil:
		lines = append(lines, s.Key.Render("AI Result:"), s.Detail.Render(state.Result.Text))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func HealthBadge(s Styles, status domain.HealthStatus, checking bool) string {
	label := s.Key.Render("Colab:") + " "
	switch {
	case checking || status == domain.HealthChecking:
		return label + s.Neutral.Render("Checking...")
	case status == domain.HealthUp:
		return label + s.Success.Render("🟢 RUNNING")
	default:
		return label + s.Failure.Render("🔴 STOPPED")
	}
}

// HealthHint explains how to bring the runtime back. It is empty unless the
// runtime is down.
func HealthHint(s Styles, status domain.HealthStatus, notebookURL string) string {
	if status != domain.HealthDown {
		return ""
	}
	lines := []string{
		"💡 To start the Colab runtime:",
		"1. Open the notebook" + notebookSuffix(notebookURL),
		"2. In Colab, go to Runtime → Run all.",
		"3. Wait 2–3 minutes for setup.",
		"4. Then recheck the status.",
	}
	return s.Help.Render(strings.Join(lines, "\n"))
}

func notebookSuffix(url string) string {
	if url == "" {
		return "."
	}
	return ": " + url
}

func RenderWorkers(snap application.RegistrySnapshot, opts Options) (string, error) {
	return Render(func(s Styles) string { return WorkersView(s, snap, opts) })
}

func RenderDetail(view application.DetailView, opts Options) (string, error) {
	return Render(func(s Styles) string { return DetailView(s, view, opts) })
}

func RenderSendReport(report domain.SendReport) (string, error) {
	return Render(func(s Styles) string { return SendReportView(s, report) })
}

func RenderTemplates(templates []domain.Template, selected domain.TemplateID) (string, error) {
	return Render(func(s Styles) string { return TemplatesView(s, templates, selected) })
}

func RenderPresets(presets []application.Preset) (string, error) {
	return Render(func(s Styles) string { return PresetsView(s, presets) })
}

func RenderAI(state application.DialogState) (string, error) {
	return Render(func(s Styles) string { return AIView(s, state, "") })
}

func RenderHealth(status domain.HealthStatus, notebookURL string) (string, error) {
	return Render(func(s Styles) string {
		hint := HealthHint(s, status, notebookURL)
		if hint == "" {
			return HealthBadge(s, status, false)
		}
		return lipgloss.JoinVertical(lipgloss.Left, HealthBadge(s, status, false), hint)
	})
}
