package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"bodash/internal/dashboard"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// Subscriber delivers controller events.
type Subscriber interface {
	Subscribe(fn func(dashboard.Event))
}

// Forward returns a controller listener that sends every event to p.
func Forward(p teaProgram) func(dashboard.Event) {
	return func(ev dashboard.Event) {
		p.Send(eventMsg{ev: ev})
	}
}

// Run starts the dashboard TUI and blocks until the user quits or ctx is done.
func Run(ctx context.Context, act Actions, sub Subscriber, opts Options) error {
	p := tea.NewProgram(NewModel(ctx, act, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	sub.Subscribe(Forward(p))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
