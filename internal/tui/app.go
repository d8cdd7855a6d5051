package tui

import (
	"context"
	"fmt"

	"portfolio-chat/internal/chat"
	"portfolio-chat/internal/config"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// Run launches the chat widget full screen. Cancelling ctx aborts any
// request still in flight.
func Run(ctx context.Context, version string, cfg *config.Config, client chat.Assistant, log zerolog.Logger) error {
	m := initialModel(ctx, version, cfg, client, log)

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
