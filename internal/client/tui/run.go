package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/isdelr/grandline-guide/internal/client/session"
	"github.com/isdelr/grandline-guide/internal/listing"
)

// Run starts the full-screen browser and blocks until the user quits.
func Run(ctx context.Context, dir listing.Directory, guides GuideFetcher, sess session.Session) error {
	var p *tea.Program
	ctrl := listing.NewController(dir, listing.OnChange(func(listing.View) {
		// OnChange may fire from inside Update; Send must not block it.
		go p.Send(RefreshMsg{})
	}))
	defer ctrl.Close()

	p = tea.NewProgram(New(ctrl, guides, sess), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}
