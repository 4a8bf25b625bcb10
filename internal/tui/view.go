package tui

import (
	"strings"

	"github.com/bnema/mailctl/internal/adapters/render/console"
	"github.com/bnema/mailctl/internal/application"
	"github.com/bnema/mailctl/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const (
	workersHelp   = "↑/↓: move  enter: inspect  c: create  d: delete  s: send  t: templates  a: AI  h: recheck  r: refresh  q: quit"
	detailHelp    = "f: toggle error filter  s: send  d: delete  r: reload  ↑/↓: scroll  esc: back"
	templatesHelp = "↑/↓: move  enter: load  n: save current  p: duplicate  x: delete  a: AI  esc: back"
	nameHelp      = "enter: save  esc: cancel"
	aiHelp        = "←/→: preset  enter: send  esc: close"
	reportHelp    = "any key: back"
)

func (m Model) View() string {
	var body, help string

	switch m.state {
	case StateWorkers:
		body = console.WorkersView(m.styles, m.snapshot, console.Options{
			Now:    m.deps.Now(),
			Cursor: m.cursor,
			Busy:   m.busy(),
			Banner: m.banner,
		})
		help = workersHelp
	case StateDetail:
		body = m.viewport.View()
		if m.banner != "" {
			body = lipgloss.JoinVertical(lipgloss.Left, m.styles.Error.Render(m.banner), body)
		}
		help = detailHelp
	case StateTemplates:
		body = m.templatesBody()
		help = templatesHelp
	case StateTemplateName:
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.styles.Title.Render("Save template"),
			m.nameInput.View(),
		)
		help = nameHelp
	case StateAI:
		body = m.aiBody()
		help = aiHelp
	case StateReport:
		if m.report != nil {
			body = console.SendReportView(m.styles, *m.report)
		}
		help = reportHelp
	}

	parts := []string{m.healthLine(), body, m.styles.Help.Render(help)}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) busy() application.BusyFlags {
	if m.deps.Orchestrator == nil {
		return application.BusyFlags{}
	}
	return m.deps.Orchestrator.Busy()
}

func (m Model) healthLine() string {
	badge := console.HealthBadge(m.styles, m.health, m.checking)
	if m.checking {
		badge = m.spinner.View() + " " + badge
	}
	hint := console.HealthHint(m.styles, m.health, m.deps.NotebookURL)
	if hint == "" {
		return badge
	}
	return lipgloss.JoinVertical(lipgloss.Left, badge, hint)
}

func (m Model) templatesBody() string {
	var selected domain.TemplateID
	if tpl, ok := m.selectedTemplate(); ok {
		selected = tpl.ID
	}
	body := console.TemplatesView(m.styles, m.templates, selected)

	var extra []string
	if m.busy().SavingTemplate {
		extra = append(extra, m.spinner.View()+" "+m.styles.Warning.Render("Saving template..."))
	}
	if m.notice != "" {
		extra = append(extra, m.styles.Neutral.Render(m.notice))
	}
	if m.banner != "" {
		extra = append(extra, m.styles.Error.Render(m.banner))
	}
	if len(extra) == 0 {
		return body
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, strings.Join(extra, "\n"))
}

func (m Model) aiBody() string {
	if m.dialog == nil {
		return ""
	}
	state := m.dialog.State()
	// A dispatched run may not have registered with the dialog yet.
	if m.aiPending {
		state.Running = true
		state.Result = nil
		state.Err = nil
	}
	body := console.AIView(m.styles, state, m.spinner.View())
	if m.banner != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, m.styles.Error.Render(m.banner))
	}
	return body
}
