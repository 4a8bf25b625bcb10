package tui

import (
	"context"
	"errors"
	"time"

	"github.com/bnema/mailctl/internal/adapters/render/console"
	"github.com/bnema/mailctl/internal/application"
	"github.com/bnema/mailctl/internal/domain"
	"github.com/bnema/mailctl/internal/ports"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// State is the screen the console is showing.
type State int

const (
	StateWorkers State = iota
	StateDetail
	StateTemplates
	StateTemplateName
	StateAI
	StateReport
)

// Deps are the application services the console drives. Monitor, Health and
// Editor may be nil.
type Deps struct {
	Registry     *application.Registry
	Detail       *application.DetailController
	Catalog      *application.TemplateCatalog
	Orchestrator *application.Orchestrator
	Assistant    *application.Assistant
	Monitor      *application.Monitor
	Health       *HealthFeed
	Editor       ports.TemplateEditor
	Extract      application.ExtractOptions
	NotebookURL  string
	Now          func() time.Time
}

type Model struct {
	ctx    context.Context
	deps   Deps
	styles console.Styles

	state    State
	returnTo State

	cursor    int
	tplCursor int

	snapshot  application.RegistrySnapshot
	detail    application.DetailView
	templates []domain.Template
	report    *domain.SendReport

	dialog    *application.PromptDialog
	presetIdx int
	aiPending bool

	health   domain.HealthStatus
	checking bool
	banner   string
	notice   string

	spinner   spinner.Model
	viewport  viewport.Model
	nameInput textinput.Model
	width     int
	height    int
}

type registryMsg struct{ err error }
type detailMsg struct{}
type catalogMsg struct{ err error }

type opKind int

const (
	opCreate opKind = iota
	opDelete
	opSend
	opSaveTemplate
	opDuplicateTemplate
	opDeleteTemplate
	opLoadTemplate
)

type opDoneMsg struct {
	op     opKind
	err    error
	report *domain.SendReport
}

type dialogOpenedMsg struct {
	dialog *application.PromptDialog
	err    error
}

type aiDoneMsg struct {
	dialogID uuid.UUID
	err      error
}

type healthCheckedMsg struct{ status domain.HealthStatus }

func New(ctx context.Context, deps Deps) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	styles := console.NewStyles()
	s.Style = styles.Spinner

	ti := textinput.New()
	ti.Placeholder = "template name"
	ti.CharLimit = 120
	ti.Width = 40

	health := domain.HealthChecking
	if deps.Monitor != nil {
		health = deps.Monitor.Status()
	}

	return Model{
		ctx:       ctx,
		deps:      deps,
		styles:    styles,
		state:     StateWorkers,
		presetIdx: -1,
		health:    health,
		spinner:   s,
		viewport:  viewport.New(80, 20),
		nameInput: ti,
	}
}

func (m Model) State() State {
	return m.state
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh(), m.deps.Health.wait(m.ctx))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 5)
		m.syncViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case registryMsg:
		m.snapshot = m.deps.Registry.Snapshot()
		m.clampCursor()
		return m, nil

	case detailMsg:
		m.detail = m.deps.Detail.View()
		m.syncViewport()
		return m, nil

	case catalogMsg:
		m.templates = m.deps.Catalog.List()
		m.notice = ""
		if msg.err != nil {
			m.banner = application.DescribeError(msg.err)
		}
		m.clampTemplateCursor()
		return m, nil

	case opDoneMsg:
		return m.handleOpDone(msg)

	case dialogOpenedMsg:
		if msg.err != nil {
			m.banner = application.DescribeError(msg.err)
			return m, nil
		}
		m.dialog = msg.dialog
		m.presetIdx = -1
		m.aiPending = false
		m.returnTo = m.state
		m.state = StateAI
		return m, nil

	case aiDoneMsg:
		if m.dialog != nil && m.dialog.ID() == msg.dialogID {
			m.aiPending = false
		}
		return m, nil

	case healthMsg:
		m.health = msg.status
		return m, m.deps.Health.wait(m.ctx)

	case healthCheckedMsg:
		m.health = msg.status
		m.checking = false
		return m, nil
	}

	if m.state == StateTemplateName {
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	m.snapshot = m.deps.Registry.Snapshot()
	m.clampCursor()
	m.detail = m.deps.Detail.View()
	m.templates = m.deps.Catalog.List()
	m.clampTemplateCursor()

	m.banner, m.notice = "", ""
	if msg.err != nil {
		m.banner = application.DescribeError(msg.err)
	}

	switch msg.op {
	case opDelete:
		if m.state == StateDetail && !m.detail.Open {
			m.state = StateWorkers
		}
	case opSend:
		if msg.err == nil && msg.report != nil {
			m.report = msg.report
			m.returnTo = m.state
			m.state = StateReport
		}
	case opLoadTemplate:
		switch {
		case msg.err == nil:
			m.notice = "Template loaded into the editor."
		case errors.Is(msg.err, domain.ErrTemplateNotFound):
			// The list was stale; the editor was left as it was.
			m.notice = "That template is gone. Press r to refresh the list."
		}
	}

	m.syncViewport()
	return m, nil
}

func (m *Model) syncViewport() {
	if m.state != StateDetail {
		return
	}
	m.viewport.SetContent(console.DetailView(m.styles, m.detail, console.Options{Now: m.deps.Now()}))
}

func (m *Model) clampCursor() {
	n := len(m.snapshot.Resources)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) clampTemplateCursor() {
	n := len(m.templates)
	if m.tplCursor >= n {
		m.tplCursor = n - 1
	}
	if m.tplCursor < 0 {
		m.tplCursor = 0
	}
}

func (m Model) selectedResource() (domain.WorkerResource, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snapshot.Resources) {
		return domain.WorkerResource{}, false
	}
	return m.snapshot.Resources[m.cursor], true
}

func (m Model) selectedTemplate() (domain.Template, bool) {
	if m.tplCursor < 0 || m.tplCursor >= len(m.templates) {
		return domain.Template{}, false
	}
	return m.templates[m.tplCursor], true
}
