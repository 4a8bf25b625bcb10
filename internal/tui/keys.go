package tui

import (
	"strings"

	"github.com/bnema/mailctl/internal/application"
	"github.com/bnema/mailctl/internal/domain"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case StateWorkers:
		return m.handleWorkersKey(msg)
	case StateDetail:
		return m.handleDetailKey(msg)
	case StateTemplates:
		return m.handleTemplatesKey(msg)
	case StateTemplateName:
		return m.handleTemplateNameKey(msg)
	case StateAI:
		return m.handleAIKey(msg)
	case StateReport:
		m.state = m.returnTo
		m.syncViewport()
		return m, nil
	}
	return m, nil
}

// shared handles keys that mean the same thing on the list screens.
func (m Model) shared(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "q":
		return m, tea.Quit, true
	case "h":
		if m.deps.Monitor == nil || m.checking {
			return m, nil, true
		}
		m.checking = true
		return m, m.checkHealth(), true
	case "a":
		return m, m.openDialog(), true
	}
	return m, nil, false
}

func (m Model) handleWorkersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if next, cmd, ok := m.shared(key); ok {
		return next, cmd
	}

	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.snapshot.Resources)-1 {
			m.cursor++
		}
	case "r":
		return m, m.refresh()
	case "c":
		m.banner = ""
		return m, m.create()
	case "d":
		if r, ok := m.selectedResource(); ok {
			return m, m.deleteWorker(r.ID)
		}
	case "s":
		if r, ok := m.selectedResource(); ok {
			return m, m.send(r.ID)
		}
	case "enter", "e":
		if r, ok := m.selectedResource(); ok {
			m.state = StateDetail
			m.detail = application.DetailView{
				Open:              true,
				ResourceID:        r.ID,
				StatsLoading:      true,
				LogsLoading:       true,
				DeliveriesLoading: true,
			}
			m.viewport.GotoTop()
			m.syncViewport()
			return m, m.selectWorker(r.ID)
		}
	case "t":
		m.state = StateTemplates
		return m, m.refreshTemplates()
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.deps.Detail.Close()
		m.detail = application.DetailView{}
		m.state = StateWorkers
		return m, nil
	case "f":
		next := domain.LogFilterError
		if m.detail.Filter == domain.LogFilterError {
			next = domain.LogFilterAll
		}
		m.detail.Filter = next
		m.detail.LogsLoading = true
		m.syncViewport()
		return m, m.setFilter(next)
	case "r":
		return m, m.selectWorker(m.detail.ResourceID)
	case "s":
		return m, m.send(m.detail.ResourceID)
	case "d":
		return m, m.deleteWorker(m.detail.ResourceID)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleTemplatesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if next, cmd, ok := m.shared(key); ok {
		return next, cmd
	}

	switch key {
	case "esc":
		m.state = StateWorkers
	case "up", "k":
		if m.tplCursor > 0 {
			m.tplCursor--
		}
	case "down", "j":
		if m.tplCursor < len(m.templates)-1 {
			m.tplCursor++
		}
	case "r":
		return m, m.refreshTemplates()
	case "enter":
		if tpl, ok := m.selectedTemplate(); ok {
			return m, m.loadTemplate(tpl.ID)
		}
	case "p":
		if tpl, ok := m.selectedTemplate(); ok {
			return m, m.duplicateTemplate(tpl.ID)
		}
	case "x":
		if tpl, ok := m.selectedTemplate(); ok {
			return m, m.deleteTemplate(tpl.ID)
		}
	case "n":
		m.state = StateTemplateName
		m.nameInput.SetValue("")
		m.nameInput.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m Model) handleTemplateNameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.nameInput.Blur()
		m.state = StateTemplates
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			return m, nil
		}
		m.nameInput.Blur()
		m.state = StateTemplates
		return m, m.saveTemplate(name)
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m Model) handleAIKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	presets := application.Presets()

	switch msg.String() {
	case "esc":
		if m.dialog != nil {
			m.dialog.Cancel()
		}
		m.dialog = nil
		m.aiPending = false
		m.state = m.returnTo
		return m, nil
	case "right", "tab", "left", "shift+tab":
		if m.dialog == nil || m.aiPending {
			return m, nil
		}
		step := 1
		if s := msg.String(); s == "left" || s == "shift+tab" {
			step = -1
		}
		// -1 is "no preset", so the cycle has len+1 positions.
		m.presetIdx = (m.presetIdx+1+step+len(presets)+1)%(len(presets)+1) - 1
		name := ""
		if m.presetIdx >= 0 {
			name = presets[m.presetIdx].Name
		}
		if err := m.dialog.SelectPreset(name); err != nil {
			m.banner = application.DescribeError(err)
		}
		return m, nil
	case "enter":
		if m.dialog == nil || m.aiPending {
			return m, nil
		}
		if strings.TrimSpace(m.dialog.Prompt()) == "" {
			m.banner = application.DescribeError(application.ErrEmptyPrompt)
			return m, nil
		}
		m.banner = ""
		m.aiPending = true
		return m, m.runDialog(m.dialog)
	}
	return m, nil
}
