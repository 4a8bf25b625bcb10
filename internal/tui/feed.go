package tui

import (
	"context"

	"github.com/bnema/mailctl/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
)

// HealthFeed hands monitor updates to the program. Only the newest status is
// kept, so a slow screen never blocks the monitor goroutine.
type HealthFeed struct {
	ch chan domain.HealthStatus
}

func NewHealthFeed() *HealthFeed {
	return &HealthFeed{ch: make(chan domain.HealthStatus, 1)}
}

// Publish is meant for MonitorOptions.OnChange.
func (f *HealthFeed) Publish(status domain.HealthStatus) {
	for {
		select {
		case f.ch <- status:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

// Updates delivers published statuses to consumers outside the console.
func (f *HealthFeed) Updates() <-chan domain.HealthStatus {
	return f.ch
}

type healthMsg struct {
	status domain.HealthStatus
}

// wait delivers the next status. It gives up with a nil message once ctx is
// done, which Run guarantees when the program exits.
func (f *HealthFeed) wait(ctx context.Context) tea.Cmd {
	if f == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case status := <-f.ch:
			return healthMsg{status: status}
		case <-ctx.Done():
			return nil
		}
	}
}
