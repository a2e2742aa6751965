package tui

import (
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Init() tea.Cmd {
	return refresh(m.config, m.config.RefreshInterval)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m.clampSelection(), nil

	case contextsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.contexts = msg.data
		m.lastUpdated = time.Now()
		return m.clampSelection(), nil

	case schedulerMsg:
		// a contexts failure is the more useful error to keep on screen
		if msg.err != nil && m.err == nil {
			m.err = msg.err
		}
		if msg.err == nil {
			m.scheduler = msg.data
		}
		return m, nil

	case tickMsg:
		m.loading = true
		return m, refresh(m.config, m.config.RefreshInterval)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.loading = true
		return m, refresh(m.config, 0)
	case "esc":
		m.detail = false
	case "enter":
		m.detail = !m.detail && len(m.visible()) > 0
	case "d":
		i := slices.Index(domains, m.domain)
		m.domain = domains[(i+1)%len(domains)]
		m.cursor, m.offset = 0, 0
	case "up", "k":
		m.cursor--
	case "down", "j":
		m.cursor++
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.visible()) - 1
	}
	return m.clampSelection(), nil
}

// visible returns the contexts that pass the domain filter.
func (m Model) visible() []ContextData {
	if m.contexts == nil {
		return nil
	}
	if m.domain == "" {
		return m.contexts.Contexts
	}
	var out []ContextData
	for _, c := range m.contexts.Contexts {
		if c.Domain == m.domain {
			out = append(out, c)
		}
	}
	return out
}

// selected returns the context under the cursor.
func (m Model) selected() (ContextData, bool) {
	rows := m.visible()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return ContextData{}, false
	}
	return rows[m.cursor], true
}

// rowsShown is how many table rows fit on screen.
func (m Model) rowsShown() int {
	if m.height <= 0 {
		return maxVisible
	}
	// title, scheduler, header, footer and their separators
	n := m.height - 8
	if m.detail {
		n -= detailHeight
	}
	return max(1, min(n, maxVisible))
}

// clampSelection keeps the cursor on a row and the row inside the window.
func (m Model) clampSelection() Model {
	n := len(m.visible())
	m.cursor = max(0, min(m.cursor, n-1))
	if n == 0 {
		m.detail = false
	}

	shown := m.rowsShown()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+shown {
		m.offset = m.cursor - shown + 1
	}
	m.offset = max(0, min(m.offset, n-shown))
	return m
}
