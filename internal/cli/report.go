package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/haskel/collswitch/internal/workload"
)

var (
	reportTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("86"))

	reportHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("86")).
				BorderBottom(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	reportMutedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	reportSwitchedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82")).
				Bold(true)

	reportWarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// renderReport writes a human readable workload report.
func renderReport(w io.Writer, r *workload.Report) {
	var lines []string
	lines = append(lines, reportTitleStyle.Render("Workload report"))

	header := fmt.Sprintf("%-16s │ %-4s │ %-11s │ %-11s │ %9s │ %8s │ %8s │ %10s",
		"Pattern", "Dom", "Initial", "Final", "Instances", "Analyses", "Switches", "Duration")
	lines = append(lines, reportHeaderStyle.Render(header))

	for _, res := range r.Results {
		final := fmt.Sprintf("%-11s", res.Final)
		if res.Final != res.Initial {
			final = reportSwitchedStyle.Render(final)
		}
		row := fmt.Sprintf("%-16s │ %-4s │ %-11s │ %s │ %9d │ %8d │ %8d │ %10s",
			res.Pattern, res.Domain, res.Initial, final,
			res.Instances, res.Analyses, res.Switches, res.Duration.Round(1e6))
		if !res.Settled {
			row += reportWarnStyle.Render("  (not settled)")
		}
		lines = append(lines, row)
	}

	lines = append(lines, "")
	lines = append(lines, reportMutedStyle.Render(fmt.Sprintf(
		"%d of %d contexts switched in %s", r.Switched(), len(r.Results), r.Elapsed.Round(1e6))))

	if r.Before != nil && r.After != nil {
		lines = append(lines, reportMutedStyle.Render(fmt.Sprintf(
			"process RSS %s → %s, CPU %.1f%%, threads %d, %d logical CPUs",
			formatBytes(r.Before.RSSBytes), formatBytes(r.After.RSSBytes),
			r.After.CPUPercent, r.After.Threads, r.After.LogicalCPUs)))
	}

	fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), strings.ToUpper("kmgtpe")[exp])
}
