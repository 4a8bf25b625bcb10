package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the health monitor and drives the console until the user quits
// or ctx is cancelled. The monitor is stopped before Run returns.
func Run(ctx context.Context, deps Deps, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if deps.Monitor != nil {
		deps.Monitor.Start(ctx)
		defer deps.Monitor.Stop()
	}

	options := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, deps), options...)
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
