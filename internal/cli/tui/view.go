package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// maxVisible caps the number of context rows shown at once.
const maxVisible = 10

const rowFormat = "%-28s │ %-4s │ %-11s │ %-11s │ %-12s │ %-18s │ %8s │ %8s"

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	parts := []string{m.titleBar()}
	if m.err != nil {
		parts = append(parts, errorStyle.Render("Error: "+m.err.Error()))
	}
	if m.scheduler != nil {
		parts = append(parts, m.schedulerLine())
	}
	if m.contexts != nil {
		parts = append(parts, m.table())
		if c, ok := m.selected(); ok && m.detail {
			parts = append(parts, detailPanel(c))
		}
		parts = append(parts, m.footer())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) titleBar() string {
	left := titleStyle.Render("COLLSWITCH CONTEXTS")
	if m.domain != "" {
		left += " " + filterStyle.Render("["+m.domain+"]")
	}

	status := "↻ " + m.config.RefreshInterval.String()
	if m.loading {
		status = "↻ loading..."
	}
	right := mutedStyle.Render(status + " | q quit  r refresh  d domain  ⏎ detail  ↑↓ move")

	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) schedulerLine() string {
	s := m.scheduler
	state := "stopped"
	if s.Running {
		state = "running"
	}
	field := func(label string, v any) string {
		return mutedStyle.Render(label) + " " + fmt.Sprint(v)
	}
	return "  " + strings.Join([]string{
		field("Scheduler", state),
		field("workers", s.Workers),
		field("period", s.Period),
		field("tasks", s.Tasks),
		field("ticks", s.Ticks),
		field("skipped", s.Skipped),
		field("panics", s.Panics),
	}, "  ")
}

func (m Model) table() string {
	lines := []string{headerStyle.Render("  " + fmt.Sprintf(rowFormat,
		"Context", "Dom", "Current", "Default", "State", "Window", "Analyses", "Switches"))}

	rows := m.visible()
	if len(rows) == 0 {
		msg := "no contexts registered"
		if m.domain != "" {
			msg = "no " + m.domain + " contexts"
		}
		return strings.Join(append(lines, mutedStyle.Render("  "+msg)), "\n")
	}

	end := min(m.offset+m.rowsShown(), len(rows))
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.row(rows[i], i == m.cursor))
	}
	if end-m.offset < len(rows) {
		lines = append(lines, mutedStyle.Render(
			fmt.Sprintf("  [%d-%d of %d]", m.offset+1, end, len(rows))))
	}
	return strings.Join(lines, "\n")
}

func (m Model) row(c ContextData, selected bool) string {
	id := c.ID
	if len(id) > 28 {
		id = id[:25] + "..."
	}
	o := c.Optimizer

	current := fmt.Sprintf("%-11s", c.Current)
	state := fmt.Sprintf("%-12s", o.State)
	if !selected {
		if c.Current != o.Default {
			current = switchedStyle.Render(current)
		}
		state = lipgloss.NewStyle().Foreground(stateColor(o.State)).Render(state)
	}

	line := fmt.Sprintf("%-28s │ %-4s │ %s │ %-11s │ %s │ %s │ %8d │ %8d",
		id, c.Domain, current, o.Default, state,
		windowBar(o.Window.Finished, o.Threshold, 10), o.Analyses, o.Switches)
	if selected {
		return "▸ " + cursorStyle.Render(line)
	}
	return "  " + line
}

// windowBar shows the finished records against the analysis threshold.
func windowBar(finished, threshold, width int) string {
	filled := 0
	if threshold > 0 {
		filled = max(0, min(width, finished*width/threshold))
	}
	bar := lipgloss.NewStyle().Foreground(fillColor(finished, threshold)).Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("[%s] %3d/%-3d", bar, finished, threshold)
}

func detailPanel(c ContextData) string {
	o := c.Optimizer
	champion := o.LastChampion
	if champion == "" {
		champion = "-"
	}
	lines := []string{
		titleStyle.Render(c.ID) + mutedStyle.Render("  ("+c.Domain+")"),
		fmt.Sprintf("type      %s (default %s)", c.Current, o.Default),
		fmt.Sprintf("state     %s", o.State),
		fmt.Sprintf("window    %d/%d records, %d finished, threshold %d",
			o.Window.Records, o.Window.Capacity, o.Window.Finished, o.Threshold),
		fmt.Sprintf("ticks     %d  analyses %d  switches %d  failures %d",
			o.Ticks, o.Analyses, o.Switches, o.Failures),
		fmt.Sprintf("champion  %s", champion),
	}
	return detailStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) footer() string {
	var switches, failures int64
	for _, c := range m.contexts.Contexts {
		switches += c.Optimizer.Switches
		failures += c.Optimizer.Failures
	}
	return mutedStyle.Render(fmt.Sprintf(
		"  Contexts: %d │ Switches: %s │ Failures: %d │ Updated: %s",
		m.contexts.Total, formatNumber(switches), failures, m.lastUpdated.Format("15:04:05")))
}

func formatNumber(n int64) string {
	if n >= 1000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d", n)
}
