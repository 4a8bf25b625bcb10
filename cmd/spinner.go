package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E07A5F"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#81B29A"))
	failureStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E63946"))
)

type progressDoneMsg struct {
	err      error
	finished time.Time
}

// progressModel draws a spinner with the elapsed time until the operation
// reports back. The final frame is blank; the outcome is printed by
// runWithSpinner once the program has released the terminal.
type progressModel struct {
	spinner spinner.Model
	label   string
	op      tea.Cmd
	now     func() time.Time

	started time.Time
	elapsed time.Duration
	err     error
	done    bool
}

func newProgressModel(label string, op tea.Cmd, now func() time.Time) progressModel {
	return progressModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(progressStyle)),
		label:   label,
		op:      op,
		now:     now,
		started: now(),
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.op)
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case progressDoneMsg:
		m.done = true
		m.err = msg.err
		m.elapsed = msg.finished.Sub(m.started)
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}
	elapsed := m.now().Sub(m.started)
	if elapsed < time.Second {
		return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
	}
	return fmt.Sprintf("%s %s %s", m.spinner.View(), m.label, progressStyle.Render(formatElapsed(elapsed)))
}

// Summary is the one-line outcome, e.g. "✓ Fetching workers (0.2s)".
func (m progressModel) Summary() string {
	label := strings.TrimSuffix(m.label, "...")
	if m.err != nil {
		return fmt.Sprintf("%s %s failed after %s", failureStyle.Render("✗"), label, formatElapsed(m.elapsed))
	}
	return fmt.Sprintf("%s %s (%s)", successStyle.Render("✓"), label, formatElapsed(m.elapsed))
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// runWithSpinner runs op while a spinner with label is drawn on output, then
// leaves a summary line with the outcome and how long it took.
func runWithSpinner(ctx context.Context, output io.Writer, label string, op func(context.Context) error) error {
	runOp := func() tea.Msg {
		err := op(ctx)
		return progressDoneMsg{err: err, finished: time.Now()}
	}

	p := tea.NewProgram(
		newProgressModel(label, runOp, time.Now),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	final, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := final.(progressModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", final)
	}
	if _, err := fmt.Fprintln(output, result.Summary()); err != nil {
		return err
	}
	return result.err
}
