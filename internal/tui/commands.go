package tui

import (
	"errors"

	"github.com/bnema/mailctl/internal/application"
	"github.com/bnema/mailctl/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
)

var errNoEditor = errors.New("no template editor configured")

func (m Model) refresh() tea.Cmd {
	registry := m.deps.Registry
	ctx := m.ctx
	return func() tea.Msg {
		return registryMsg{err: registry.Refresh(ctx)}
	}
}

func (m Model) selectWorker(id domain.ResourceID) tea.Cmd {
	detail := m.deps.Detail
	ctx := m.ctx
	return func() tea.Msg {
		detail.Select(ctx, id)
		return detailMsg{}
	}
}

func (m Model) setFilter(filter domain.LogFilter) tea.Cmd {
	detail := m.deps.Detail
	ctx := m.ctx
	return func() tea.Msg {
		detail.SetFilter(ctx, filter)
		return detailMsg{}
	}
}

func (m Model) runOp(op opKind, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn()}
	}
}

func (m Model) create() tea.Cmd {
	o, ctx := m.deps.Orchestrator, m.ctx
	return m.runOp(opCreate, func() error { return o.Create(ctx) })
}

func (m Model) deleteWorker(id domain.ResourceID) tea.Cmd {
	o, ctx := m.deps.Orchestrator, m.ctx
	return m.runOp(opDelete, func() error { return o.Delete(ctx, id) })
}

func (m Model) send(id domain.ResourceID) tea.Cmd {
	o, ctx := m.deps.Orchestrator, m.ctx
	return func() tea.Msg {
		report, err := o.SendBatch(ctx, id)
		if err != nil {
			return opDoneMsg{op: opSend, err: err}
		}
		return opDoneMsg{op: opSend, report: &report}
	}
}

func (m Model) refreshTemplates() tea.Cmd {
	catalog, ctx := m.deps.Catalog, m.ctx
	return func() tea.Msg {
		return catalogMsg{err: catalog.Refresh(ctx)}
	}
}

func (m Model) saveTemplate(name string) tea.Cmd {
	o, ctx, editor := m.deps.Orchestrator, m.ctx, m.deps.Editor
	return m.runOp(opSaveTemplate, func() error {
		if editor == nil {
			return errNoEditor
		}
		return o.SaveTemplate(ctx, name, editor)
	})
}

func (m Model) duplicateTemplate(id domain.TemplateID) tea.Cmd {
	o, ctx := m.deps.Orchestrator, m.ctx
	return m.runOp(opDuplicateTemplate, func() error { return o.DuplicateTemplate(ctx, id) })
}

func (m Model) deleteTemplate(id domain.TemplateID) tea.Cmd {
	o, ctx := m.deps.Orchestrator, m.ctx
	return m.runOp(opDeleteTemplate, func() error { return o.DeleteTemplate(ctx, id) })
}

func (m Model) loadTemplate(id domain.TemplateID) tea.Cmd {
	catalog, ctx, editor := m.deps.Catalog, m.ctx, m.deps.Editor
	return m.runOp(opLoadTemplate, func() error {
		if editor == nil {
			return errNoEditor
		}
		_, err := catalog.Load(ctx, id, editor)
		return err
	})
}

// openDialog extracts the editor's current content into a new AI dialog.
func (m Model) openDialog() tea.Cmd {
	ctx, editor, opts := m.ctx, m.deps.Editor, m.deps.Extract
	return func() tea.Msg {
		var markup string
		if editor != nil {
			html, _, err := editor.ExportContent(ctx)
			if err != nil {
				return dialogOpenedMsg{err: err}
			}
			markup = html
		}
		return dialogOpenedMsg{dialog: application.NewPromptDialog(application.Extract(markup, opts))}
	}
}

func (m Model) runDialog(dialog *application.PromptDialog) tea.Cmd {
	assistant, ctx := m.deps.Assistant, m.ctx
	return func() tea.Msg {
		_, err := assistant.Run(ctx, dialog)
		return aiDoneMsg{dialogID: dialog.ID(), err: err}
	}
}

func (m Model) checkHealth() tea.Cmd {
	monitor, ctx := m.deps.Monitor, m.ctx
	return func() tea.Msg {
		return healthCheckedMsg{status: monitor.CheckNow(ctx)}
	}
}
