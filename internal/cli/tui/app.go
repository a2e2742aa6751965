package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const minRefresh = 100 * time.Millisecond

// normalize fills in defaults and trims the server URL.
func (c Config) normalize() Config {
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	if c.RefreshInterval < minRefresh {
		c.RefreshInterval = minRefresh
	}
	return c
}

// Run checks the server is reachable, then starts the dashboard.
func Run(cfg Config) error {
	cfg = cfg.normalize()

	if err := ping(cfg); err != nil {
		return fmt.Errorf("cannot reach collswitch server at %s: %w", cfg.ServerURL, err)
	}

	p := tea.NewProgram(NewModel(cfg), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
